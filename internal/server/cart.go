package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akazieva/bookstore/internal/domain/cart"
	"github.com/akazieva/bookstore/internal/logger"
	storerrors "github.com/akazieva/bookstore/internal/storage/errors"
)

type addToCartRequest struct {
	BID      string `json:"bid"`
	Quantity *int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (s *Server) AddToCart(ctx *gin.Context) {
	log := logger.Get()
	var req addToCartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "incorrectly entered data"})
		return
	}
	if req.BID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "bid is required"})
		return
	}
	qty := cart.DefaultQuantity
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if !cart.ValidQuantity(qty) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be a positive integer"})
		return
	}

	uid := ctx.GetString("uid")
	if err := s.storage.AddCartItem(uid, req.BID, qty); err != nil {
		if errors.Is(err, storerrors.ErrBookNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("failed to add book to cart")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "book added to cart"})
}

func (s *Server) CartItems(ctx *gin.Context) {
	log := logger.Get()
	uid := ctx.GetString("uid")
	items, err := s.storage.GetCartItems(uid)
	if err != nil {
		log.Error().Err(err).Msg("failed to get cart items")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, items)
}

// UpdateCartItem replaces the quantity of the caller's own line. A quantity
// below one is rejected, removal has its own route.
func (s *Server) UpdateCartItem(ctx *gin.Context) {
	log := logger.Get()
	iid := ctx.Param("id")
	var req updateCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "incorrectly entered data"})
		return
	}
	if req.Quantity == nil || !cart.ValidQuantity(*req.Quantity) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be a positive integer"})
		return
	}

	uid := ctx.GetString("uid")
	if err := s.storage.UpdateCartItem(uid, iid, *req.Quantity); err != nil {
		if errors.Is(err, storerrors.ErrCartItemNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("failed to update cart item")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "cart item updated"})
}

func (s *Server) RemoveCartItem(ctx *gin.Context) {
	log := logger.Get()
	iid := ctx.Param("id")
	uid := ctx.GetString("uid")
	if err := s.storage.RemoveCartItem(uid, iid); err != nil {
		if errors.Is(err, storerrors.ErrCartItemNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("failed to remove cart item")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove cart item"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "book removed from cart"})
}

// Checkout is a stub: its only guaranteed effect is emptying the cart.
func (s *Server) Checkout(ctx *gin.Context) {
	log := logger.Get()
	uid := ctx.GetString("uid")
	if err := s.storage.ClearCart(uid); err != nil {
		if errors.Is(err, storerrors.ErrEmptyCart) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("failed to clear cart")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cart"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "checkout complete"})
}
