package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"

	"github.com/akazieva/bookstore/internal/config"
	"github.com/akazieva/bookstore/internal/domain/models"
	"github.com/akazieva/bookstore/internal/logger"
)

var ErrInvalidToken = errors.New("invalid token")

const tokenTTL = 3 * time.Hour

// Claims carries the identity of the acting account: the uid for lookups and
// the email, which is the claim the token is issued for.
type Claims struct {
	jwt.RegisteredClaims
	UID   string
	Email string
}

type Storage interface {
	SaveUser(models.User) (string, error)
	ValidUser(models.User) (string, error)
	GetUser(string) (models.User, error)

	SaveBook(models.Book) (string, error)
	GetBooks() ([]models.Book, error)
	GetBook(string) (models.Book, error)
	UpdateBook(string, models.BookUpdate) (models.Book, error)
	DeleteBook(string) error

	AddCartItem(uid, bid string, qty int) error
	GetCartItems(uid string) ([]models.CartItem, error)
	UpdateCartItem(uid, iid string, qty int) error
	RemoveCartItem(uid, iid string) error
	ClearCart(uid string) error
}

type Server struct {
	serv    *http.Server
	valid   *validator.Validate
	storage Storage
	secret  string
	ErrChan chan error
}

func New(cfg config.Config, stor Storage) *Server {
	server := http.Server{ //nolint:gosec // not today
		Addr: cfg.Addr,
	}
	valid := validator.New()
	return &Server{
		serv:    &server,
		valid:   valid,
		storage: stor,
		secret:  cfg.JWTSecret,
		ErrChan: make(chan error),
	}
}

func (s *Server) ShutdownServer() error {
	return s.serv.Shutdown(context.Background())
}

func (s *Server) Run(ctx context.Context) error {
	log := logger.Get()
	router := gin.Default()
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "Thank you for using bookstore application")
	})
	user := router.Group("/user")
	{
		user.POST("/register", s.Register)
		user.POST("/login", s.Login)
	}
	router.GET("/profile", s.JWTAuthMiddleware(), s.Profile)
	books := router.Group("/books")
	{
		books.GET("", s.AllBooks)
		books.GET("/:id", s.BookInfo)
		books.POST("", s.JWTAuthMiddleware(), s.AddBook)
		books.PUT("/:id", s.JWTAuthMiddleware(), s.UpdateBook)
		books.DELETE("/:id", s.JWTAuthMiddleware(), s.RemoveBook)
	}
	carts := router.Group("/cart", s.JWTAuthMiddleware())
	{
		carts.POST("", s.AddToCart)
		carts.GET("", s.CartItems)
		carts.PUT("/:id", s.UpdateCartItem)
		carts.DELETE("/:id", s.RemoveCartItem)
	}
	router.POST("/checkout", s.JWTAuthMiddleware(), s.Checkout)

	s.serv.Handler = router
	log.Info().Str("host", s.serv.Addr).Msg("server started")
	if err := s.serv.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) JWTAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		log := logger.Get()

		tokenHeader := ctx.GetHeader("Authorization")
		if tokenHeader == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		// expected format "Bearer <token>"
		tokenParts := strings.Split(tokenHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}
		tokenStr := tokenParts[1]

		claims, err := s.validToken(tokenStr)
		if err != nil {
			log.Error().Err(err).Msg("validate jwt failed")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		ctx.Set("uid", claims.UID)
		ctx.Set("email", claims.Email)
		ctx.Next()
	}
}

func (s *Server) validToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Server) createJWTToken(uid, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
		UID:   uid,
		Email: email,
	})
	tokenStr, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", err
	}
	return tokenStr, nil
}
