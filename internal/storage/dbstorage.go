package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/akazieva/bookstore/internal/domain/cart"
	"github.com/akazieva/bookstore/internal/domain/consts"
	"github.com/akazieva/bookstore/internal/domain/models"
	"github.com/akazieva/bookstore/internal/logger"
	storerrors "github.com/akazieva/bookstore/internal/storage/errors"
)

type DBStorage struct {
	pool *pgxpool.Pool
}

func NewDB(ctx context.Context, addr string) (*DBStorage, error) {
	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	return &DBStorage{pool: pool}, nil
}

func (dbs *DBStorage) SaveUser(user models.User) (string, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	var email string
	err := dbs.pool.QueryRow(ctx, "SELECT email FROM users WHERE email = $1", user.Email).Scan(&email)
	if err == nil {
		return "", storerrors.ErrUserExists
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		log.Error().Err(err).Msg("check user failed")
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Pass), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("save user failed")
		return "", err
	}
	uid := uuid.New().String()
	_, err = dbs.pool.Exec(ctx,
		"INSERT INTO users (uid, username, email, pass) VALUES ($1, $2, $3, $4)",
		uid, user.Username, user.Email, string(hash))
	if err != nil {
		log.Error().Err(err).Msg("failed to insert user")
		return "", err
	}
	return uid, nil
}

func (dbs *DBStorage) ValidUser(user models.User) (string, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	var usr models.User
	row := dbs.pool.QueryRow(ctx, "SELECT uid, pass FROM users WHERE email = $1", user.Email)
	if err := row.Scan(&usr.UID, &usr.Pass); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storerrors.ErrUserNotFound
		}
		log.Error().Err(err).Msg("failed scan db data")
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(usr.Pass), []byte(user.Pass)); err != nil {
		return "", storerrors.ErrInvalidPassword
	}
	return usr.UID, nil
}

func (dbs *DBStorage) GetUser(uid string) (models.User, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	row := dbs.pool.QueryRow(ctx, "SELECT uid, username, email, pass, created_at FROM users WHERE uid = $1", uid)
	var usr models.User
	if err := row.Scan(&usr.UID, &usr.Username, &usr.Email, &usr.Pass, &usr.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storerrors.ErrUserNotFound
		}
		log.Error().Err(err).Msg("failed scan db data")
		return models.User{}, err
	}
	return usr, nil
}

func (dbs *DBStorage) SaveBook(book models.Book) (string, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	bid := uuid.New().String()
	_, err := dbs.pool.Exec(ctx,
		`INSERT INTO books (bid, label, author, "desc", price, genre, cover_url) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		bid, book.Label, book.Author, book.Desc, book.Price, book.Genre, book.CoverURL)
	if err != nil {
		log.Error().Err(err).Msg("save book failed")
		return "", err
	}
	return bid, nil
}

func (dbs *DBStorage) GetBooks() ([]models.Book, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	rows, err := dbs.pool.Query(ctx, `SELECT bid, label, author, "desc", price, genre, cover_url, created_at FROM books`)
	if err != nil {
		log.Error().Err(err).Msg("failed get all books from db")
		return nil, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(&book.BID, &book.Label, &book.Author, &book.Desc, &book.Price, &book.Genre, &book.CoverURL, &book.CreatedAt); err != nil {
			log.Error().Err(err).Msg("failed to scan data from db")
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

func (dbs *DBStorage) GetBook(bid string) (models.Book, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	row := dbs.pool.QueryRow(ctx, `SELECT bid, label, author, "desc", price, genre, cover_url, created_at FROM books WHERE bid = $1`, bid)
	var book models.Book
	if err := row.Scan(&book.BID, &book.Label, &book.Author, &book.Desc, &book.Price, &book.Genre, &book.CoverURL, &book.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storerrors.ErrBookNotFound
		}
		log.Error().Err(err).Msg("failed to scan data from db")
		return models.Book{}, err
	}
	return book, nil
}

func (dbs *DBStorage) UpdateBook(bid string, upd models.BookUpdate) (models.Book, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	tx, err := dbs.pool.Begin(ctx)
	if err != nil {
		return models.Book{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx,
		`SELECT bid, label, author, "desc", price, genre, cover_url, created_at FROM books WHERE bid = $1 FOR UPDATE`, bid)
	var book models.Book
	if err = row.Scan(&book.BID, &book.Label, &book.Author, &book.Desc, &book.Price, &book.Genre, &book.CoverURL, &book.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = storerrors.ErrBookNotFound
			return models.Book{}, err
		}
		log.Error().Err(err).Msg("failed to scan data from db")
		return models.Book{}, err
	}

	upd.Apply(&book)
	_, err = tx.Exec(ctx,
		`UPDATE books SET label = $1, author = $2, "desc" = $3, price = $4, genre = $5, cover_url = $6 WHERE bid = $7`,
		book.Label, book.Author, book.Desc, book.Price, book.Genre, book.CoverURL, bid)
	if err != nil {
		log.Error().Err(err).Msg("failed to update book")
		return models.Book{}, err
	}
	return book, nil
}

// DeleteBook removes the book and, in the same transaction, every cart line
// that references it.
func (dbs *DBStorage) DeleteBook(bid string) error {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	tx, err := dbs.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM cart_items WHERE bid = $1", bid); err != nil {
		log.Error().Err(err).Msg("failed to delete cart items for book")
		return err
	}
	res, err := tx.Exec(ctx, "DELETE FROM books WHERE bid = $1", bid)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete book")
		return err
	}
	if res.RowsAffected() == 0 {
		err = storerrors.ErrBookNotFound
		return err
	}
	log.Info().Str("bid", bid).Msg("book deleted")
	return nil
}

// AddCartItem merges qty into the caller's existing line for the book or
// inserts a new one. The advisory lock serializes concurrent adds for the
// same (user, book) pair: a row lock alone cannot cover the first insert,
// when there is no row to lock yet.
func (dbs *DBStorage) AddCartItem(uid, bid string, qty int) error {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	tx, err := dbs.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))", uid, bid); err != nil {
		log.Error().Err(err).Msg("failed to lock cart line")
		return err
	}

	var exists string
	if err = tx.QueryRow(ctx, "SELECT bid FROM books WHERE bid = $1", bid).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = storerrors.ErrBookNotFound
			return err
		}
		log.Error().Err(err).Msg("failed to check book")
		return err
	}

	var item models.CartItem
	err = tx.QueryRow(ctx,
		"SELECT iid, uid, bid, quantity FROM cart_items WHERE uid = $1 AND bid = $2 FOR UPDATE", uid, bid).
		Scan(&item.IID, &item.UID, &item.BID, &item.Quantity)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Error().Err(err).Msg("failed to check cart item")
			return err
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO cart_items (iid, uid, bid, quantity) VALUES ($1, $2, $3, $4)",
			uuid.New().String(), uid, bid, qty)
		if err != nil {
			return fmt.Errorf("failed to add book to cart: %w", err)
		}
		return nil
	}

	item = cart.Merged(item, qty)
	if _, err = tx.Exec(ctx, "UPDATE cart_items SET quantity = $1 WHERE iid = $2", item.Quantity, item.IID); err != nil {
		return fmt.Errorf("failed to update book quantity in cart: %w", err)
	}
	log.Debug().Str("iid", item.IID).Int("quantity", item.Quantity).Msg("cart item merged")
	return nil
}

func (dbs *DBStorage) GetCartItems(uid string) ([]models.CartItem, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	rows, err := dbs.pool.Query(ctx,
		"SELECT iid, uid, bid, quantity, created_at FROM cart_items WHERE uid = $1", uid)
	if err != nil {
		log.Error().Err(err).Msg("failed to get cart items")
		return nil, err
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.IID, &item.UID, &item.BID, &item.Quantity, &item.CreatedAt); err != nil {
			log.Error().Err(err).Msg("failed to scan data from db")
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (dbs *DBStorage) UpdateCartItem(uid, iid string, qty int) error {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	tx, err := dbs.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var item models.CartItem
	err = tx.QueryRow(ctx,
		"SELECT iid, uid, bid, quantity FROM cart_items WHERE iid = $1 AND uid = $2 FOR UPDATE", iid, uid).
		Scan(&item.IID, &item.UID, &item.BID, &item.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = storerrors.ErrCartItemNotFound
			return err
		}
		log.Error().Err(err).Msg("failed to check cart item")
		return err
	}

	item = cart.WithQuantity(item, qty)
	if _, err = tx.Exec(ctx, "UPDATE cart_items SET quantity = $1 WHERE iid = $2", item.Quantity, item.IID); err != nil {
		log.Error().Err(err).Msg("failed to update cart item")
		return err
	}
	return nil
}

func (dbs *DBStorage) RemoveCartItem(uid, iid string) error {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	res, err := dbs.pool.Exec(ctx, "DELETE FROM cart_items WHERE iid = $1 AND uid = $2", iid, uid)
	if err != nil {
		log.Error().Err(err).Msg("failed to remove cart item")
		return err
	}
	if res.RowsAffected() == 0 {
		return storerrors.ErrCartItemNotFound
	}
	return nil
}

// ClearCart empties the caller's cart in one statement, so the delete is
// all-or-nothing.
func (dbs *DBStorage) ClearCart(uid string) error {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	res, err := dbs.pool.Exec(ctx, "DELETE FROM cart_items WHERE uid = $1", uid)
	if err != nil {
		log.Error().Err(err).Msg("failed to clear cart")
		return err
	}
	if res.RowsAffected() == 0 {
		return storerrors.ErrEmptyCart
	}
	log.Debug().Str("uid", uid).Int64("items", res.RowsAffected()).Msg("cart cleared")
	return nil
}

func Migrations(dbDsn string, migrationsPath string) error {
	log := logger.Get()
	migratePath := fmt.Sprintf("file://%s", migrationsPath)
	m, err := migrate.New(migratePath, dbDsn)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("no migrations apply")
			return nil
		}
		return err
	}
	log.Info().Msg("all migrations apply")
	return nil
}
