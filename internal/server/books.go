package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/akazieva/bookstore/internal/domain/models"
	"github.com/akazieva/bookstore/internal/logger"
	storerrors "github.com/akazieva/bookstore/internal/storage/errors"
)

type bookRequest struct {
	Label    string          `json:"label" validate:"required"`
	Author   string          `json:"author" validate:"required"`
	Desc     string          `json:"desc"`
	Price    decimal.Decimal `json:"price"`
	Genre    string          `json:"genre"`
	CoverURL string          `json:"cover_url"`
}

func (s *Server) AddBook(ctx *gin.Context) {
	log := logger.Get()
	var req bookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "incorrectly entered data"})
		return
	}
	if err := s.valid.Struct(req); err != nil {
		log.Error().Err(err).Msg("validate book request failed")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "incorrectly entered data"})
		return
	}

	bid, err := s.storage.SaveBook(models.Book{
		Label:    req.Label,
		Author:   req.Author,
		Desc:     req.Desc,
		Price:    req.Price,
		Genre:    req.Genre,
		CoverURL: req.CoverURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("save book failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"bid": bid})
}

func (s *Server) AllBooks(ctx *gin.Context) {
	books, err := s.storage.GetBooks()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, books)
}

func (s *Server) BookInfo(ctx *gin.Context) {
	id := ctx.Param("id")
	book, err := s.storage.GetBook(id)
	if err != nil {
		if errors.Is(err, storerrors.ErrBookNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, book)
}

// UpdateBook applies a partial update: only the fields present in the body
// change, everything else keeps its stored value.
func (s *Server) UpdateBook(ctx *gin.Context) {
	log := logger.Get()
	id := ctx.Param("id")
	var upd models.BookUpdate
	if err := ctx.ShouldBindJSON(&upd); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "incorrectly entered data"})
		return
	}

	book, err := s.storage.UpdateBook(id, upd)
	if err != nil {
		if errors.Is(err, storerrors.ErrBookNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("failed to update book")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, book)
}

func (s *Server) RemoveBook(ctx *gin.Context) {
	log := logger.Get()
	id := ctx.Param("id")
	if err := s.storage.DeleteBook(id); err != nil {
		if errors.Is(err, storerrors.ErrBookNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("failed to delete book")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete book"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}
