package tests

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/akazieva/bookstore/internal/domain/models"
	"github.com/akazieva/bookstore/internal/server"
	"github.com/akazieva/bookstore/internal/server/mocks"
	storerrors "github.com/akazieva/bookstore/internal/storage/errors"
)

func setupCartRouter(s *server.Server) *gin.Engine {
	r := gin.New()
	cart := r.Group("/cart", asUser("user-1"))
	cart.POST("", s.AddToCart)
	cart.GET("", s.CartItems)
	cart.PUT("/:id", s.UpdateCartItem)
	cart.DELETE("/:id", s.RemoveCartItem)
	r.POST("/checkout", asUser("user-1"), s.Checkout)
	return r
}

func TestAddToCart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockStorage(ctrl)
	s := server.New(testConfig(), mockStorage)
	router := setupCartRouter(s)

	t.Run("success", func(t *testing.T) {
		mockStorage.EXPECT().AddCartItem("user-1", "book-1", 2).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"bid":"book-1","quantity":2}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("quantity defaults to one", func(t *testing.T) {
		mockStorage.EXPECT().AddCartItem("user-1", "book-1", 1).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"bid":"book-1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing bid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"quantity":2}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		for _, body := range []string{`{"bid":"book-1","quantity":0}`, `{"bid":"book-1","quantity":-2}`} {
			req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	})

	t.Run("unknown book", func(t *testing.T) {
		mockStorage.EXPECT().AddCartItem("user-1", "ghost", 1).Return(storerrors.ErrBookNotFound)

		req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"bid":"ghost"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCartItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockStorage(ctrl)
	s := server.New(testConfig(), mockStorage)
	router := setupCartRouter(s)

	items := []models.CartItem{{IID: "item-1", UID: "user-1", BID: "book-1", Quantity: 3}}
	mockStorage.EXPECT().GetCartItems("user-1").Return(items, nil)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "item-1")
	assert.Contains(t, w.Body.String(), `"quantity":3`)
}

func TestUpdateCartItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockStorage(ctrl)
	s := server.New(testConfig(), mockStorage)
	router := setupCartRouter(s)

	t.Run("success", func(t *testing.T) {
		mockStorage.EXPECT().UpdateCartItem("user-1", "item-1", 5).Return(nil)

		req := httptest.NewRequest(http.MethodPut, "/cart/item-1", strings.NewReader(`{"quantity":5}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/cart/item-1", strings.NewReader(`{"quantity":0}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not owned", func(t *testing.T) {
		mockStorage.EXPECT().UpdateCartItem("user-1", "foreign-item", 5).Return(storerrors.ErrCartItemNotFound)

		req := httptest.NewRequest(http.MethodPut, "/cart/foreign-item", strings.NewReader(`{"quantity":5}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRemoveCartItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockStorage(ctrl)
	s := server.New(testConfig(), mockStorage)
	router := setupCartRouter(s)

	t.Run("success", func(t *testing.T) {
		mockStorage.EXPECT().RemoveCartItem("user-1", "item-1").Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/cart/item-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not owned", func(t *testing.T) {
		mockStorage.EXPECT().RemoveCartItem("user-1", "foreign-item").Return(storerrors.ErrCartItemNotFound)

		req := httptest.NewRequest(http.MethodDelete, "/cart/foreign-item", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCheckout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := mocks.NewMockStorage(ctrl)
	s := server.New(testConfig(), mockStorage)
	router := setupCartRouter(s)

	t.Run("success", func(t *testing.T) {
		mockStorage.EXPECT().ClearCart("user-1").Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("empty cart", func(t *testing.T) {
		mockStorage.EXPECT().ClearCart("user-1").Return(storerrors.ErrEmptyCart)

		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "cart is empty")
	})
}
