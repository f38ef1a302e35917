package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akazieva/bookstore/internal/domain/models"
	"github.com/akazieva/bookstore/internal/server"
	"github.com/akazieva/bookstore/internal/storage"
)

// setupFullRouter mirrors the route table of Server.Run with the real JWT
// middleware, backed by MemStorage instead of the database.
func setupFullRouter(s *server.Server) *gin.Engine {
	r := gin.New()
	r.POST("/user/register", s.Register)
	r.POST("/user/login", s.Login)
	r.GET("/profile", s.JWTAuthMiddleware(), s.Profile)
	r.GET("/books", s.AllBooks)
	r.GET("/books/:id", s.BookInfo)
	r.POST("/books", s.JWTAuthMiddleware(), s.AddBook)
	r.PUT("/books/:id", s.JWTAuthMiddleware(), s.UpdateBook)
	r.DELETE("/books/:id", s.JWTAuthMiddleware(), s.RemoveBook)
	cart := r.Group("/cart", s.JWTAuthMiddleware())
	cart.POST("", s.AddToCart)
	cart.GET("", s.CartItems)
	cart.PUT("/:id", s.UpdateCartItem)
	cart.DELETE("/:id", s.RemoveCartItem)
	r.POST("/checkout", s.JWTAuthMiddleware(), s.Checkout)
	return r
}

func do(t *testing.T, router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBookstoreFlow(t *testing.T) {
	s := server.New(testConfig(), storage.New())
	router := setupFullRouter(s)

	// register
	w := do(t, router, http.MethodPost, "/user/register", "",
		`{"username":"anna","email":"anna@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// login
	w = do(t, router, http.MethodPost, "/user/login", "",
		`{"email":"anna@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)
	token := loginResp.Token

	// profile echoes the registered account
	w = do(t, router, http.MethodGet, "/profile", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anna@example.com")

	// create a book
	w = do(t, router, http.MethodPost, "/books", token,
		`{"label":"The Go Programming Language","author":"Donovan","price":"39.99","genre":"tech"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var bookResp struct {
		BID string `json:"bid"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bookResp))
	require.NotEmpty(t, bookResp.BID)

	// add the same book twice, quantities merge into one line
	w = do(t, router, http.MethodPost, "/cart", token, `{"bid":"`+bookResp.BID+`","quantity":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodPost, "/cart", token, `{"bid":"`+bookResp.BID+`","quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/cart", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var items []models.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	// checkout empties the cart
	w = do(t, router, http.MethodPost, "/checkout", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/cart", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	items = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Empty(t, items)

	// a second checkout has nothing to clear
	w = do(t, router, http.MethodPost, "/checkout", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrossAccountCartAccess(t *testing.T) {
	s := server.New(testConfig(), storage.New())
	router := setupFullRouter(s)

	register := func(email string) string {
		w := do(t, router, http.MethodPost, "/user/register", "",
			`{"username":"u","email":"`+email+`","password":"password123"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		w = do(t, router, http.MethodPost, "/user/login", "",
			`{"email":"`+email+`","password":"password123"}`)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Token
	}

	alice := register("alice@example.com")
	bob := register("bob@example.com")

	w := do(t, router, http.MethodPost, "/books", alice, `{"label":"Shared Book","author":"Author"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var bookResp struct {
		BID string `json:"bid"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bookResp))

	w = do(t, router, http.MethodPost, "/cart", alice, `{"bid":"`+bookResp.BID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/cart", alice, "")
	var items []models.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	iid := items[0].IID

	// bob cannot see, change or delete alice's line
	w = do(t, router, http.MethodGet, "/cart", bob, "")
	require.Equal(t, http.StatusOK, w.Code)
	var bobItems []models.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bobItems))
	assert.Empty(t, bobItems)

	w = do(t, router, http.MethodPut, "/cart/"+iid, bob, `{"quantity":10}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodDelete, "/cart/"+iid, bob, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/cart", alice, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}
