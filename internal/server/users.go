package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akazieva/bookstore/internal/domain/models"
	"github.com/akazieva/bookstore/internal/logger"
	storerrors "github.com/akazieva/bookstore/internal/storage/errors"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) Register(ctx *gin.Context) {
	log := logger.Get()
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "incorrectly entered data"})
		return
	}
	if err := s.valid.Struct(req); err != nil {
		log.Error().Err(err).Msg("validate register request failed")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "incorrectly entered data"})
		return
	}

	uid, err := s.storage.SaveUser(models.User{
		Username: req.Username,
		Email:    req.Email,
		Pass:     req.Password,
	})
	if err != nil {
		if errors.Is(err, storerrors.ErrUserExists) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "user is already registered"})
			return
		}
		log.Error().Err(err).Msg("save user failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user, err := s.storage.GetUser(uid)
	if err != nil {
		log.Error().Err(err).Msg("failed to retrieve user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "unable to fetch user details"})
		return
	}
	ctx.JSON(http.StatusCreated, user)
}

func (s *Server) Login(ctx *gin.Context) {
	log := logger.Get()
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("unmarshal body failed")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "incorrectly entered data"})
		return
	}
	if err := s.valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "incorrectly entered data"})
		return
	}

	uid, err := s.storage.ValidUser(models.User{
		Email: req.Email,
		Pass:  req.Password,
	})
	if err != nil {
		// same answer for unknown email and wrong password
		if errors.Is(err, storerrors.ErrUserNotFound) || errors.Is(err, storerrors.ErrInvalidPassword) {
			log.Error().Err(err).Msg("login failed")
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid login or password"})
			return
		}
		log.Error().Err(err).Msg("validate user failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := s.createJWTToken(uid, req.Email)
	if err != nil {
		log.Error().Err(err).Msg("create jwt failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Header("Authorization", token)
	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) Profile(ctx *gin.Context) {
	log := logger.Get()
	uid := ctx.GetString("uid")
	user, err := s.storage.GetUser(uid)
	if err != nil {
		log.Error().Err(err).Msg("failed get user from db")
		if errors.Is(err, storerrors.ErrUserNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, user)
}
