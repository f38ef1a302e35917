package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akazieva/bookstore/internal/domain/cart"
	"github.com/akazieva/bookstore/internal/domain/models"
	"github.com/akazieva/bookstore/internal/logger"
	storerrors "github.com/akazieva/bookstore/internal/storage/errors"
)

// MemStorage is the in-memory fallback used when the database is not
// reachable and in tests. The mutex keeps add-to-cart merges and checkout
// atomic, same as the transaction does on the database path.
type MemStorage struct {
	mu        sync.RWMutex
	usersStor map[string]models.User
	booksStor map[string]models.Book
	itemsStor map[string]models.CartItem
}

func New() *MemStorage {
	return &MemStorage{
		usersStor: make(map[string]models.User),
		booksStor: make(map[string]models.Book),
		itemsStor: make(map[string]models.CartItem),
	}
}

func (ms *MemStorage) SaveUser(user models.User) (string, error) {
	log := logger.Get()
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, err := ms.findUser(user.Email); err == nil {
		return "", storerrors.ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Pass), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("save user failed")
		return "", err
	}
	user.Pass = string(hash)
	user.UID = uuid.New().String()
	user.CreatedAt = time.Now()
	ms.usersStor[user.UID] = user
	return user.UID, nil
}

func (ms *MemStorage) ValidUser(user models.User) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	memUser, err := ms.findUser(user.Email)
	if err != nil {
		return "", err
	}
	if err = bcrypt.CompareHashAndPassword([]byte(memUser.Pass), []byte(user.Pass)); err != nil {
		return "", storerrors.ErrInvalidPassword
	}
	return memUser.UID, nil
}

func (ms *MemStorage) GetUser(uid string) (models.User, error) {
	log := logger.Get()
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	user, ok := ms.usersStor[uid]
	if !ok {
		log.Error().Str("uid", uid).Msg("user not found")
		return models.User{}, storerrors.ErrUserNotFound
	}
	return user, nil
}

func (ms *MemStorage) findUser(email string) (models.User, error) {
	for _, user := range ms.usersStor {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, storerrors.ErrUserNotFound
}

func (ms *MemStorage) SaveBook(book models.Book) (string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	book.BID = uuid.New().String()
	book.CreatedAt = time.Now()
	ms.booksStor[book.BID] = book
	return book.BID, nil
}

func (ms *MemStorage) GetBooks() ([]models.Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	books := make([]models.Book, 0, len(ms.booksStor))
	for _, book := range ms.booksStor {
		books = append(books, book)
	}
	return books, nil
}

func (ms *MemStorage) GetBook(bid string) (models.Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	book, ok := ms.booksStor[bid]
	if !ok {
		return models.Book{}, storerrors.ErrBookNotFound
	}
	return book, nil
}

func (ms *MemStorage) UpdateBook(bid string, upd models.BookUpdate) (models.Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	book, ok := ms.booksStor[bid]
	if !ok {
		return models.Book{}, storerrors.ErrBookNotFound
	}
	upd.Apply(&book)
	ms.booksStor[bid] = book
	return book, nil
}

// DeleteBook removes the book together with every cart line that still
// references it, so carts never hold dangling book ids.
func (ms *MemStorage) DeleteBook(bid string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.booksStor[bid]; !ok {
		return storerrors.ErrBookNotFound
	}
	delete(ms.booksStor, bid)
	for iid, item := range ms.itemsStor {
		if item.BID == bid {
			delete(ms.itemsStor, iid)
		}
	}
	return nil
}

func (ms *MemStorage) AddCartItem(uid, bid string, qty int) error {
	log := logger.Get()
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.booksStor[bid]; !ok {
		return storerrors.ErrBookNotFound
	}
	for iid, item := range ms.itemsStor {
		if item.UID == uid && item.BID == bid {
			ms.itemsStor[iid] = cart.Merged(item, qty)
			log.Debug().Str("iid", iid).Int("quantity", ms.itemsStor[iid].Quantity).Msg("cart item merged")
			return nil
		}
	}
	item := models.CartItem{
		IID:       uuid.New().String(),
		UID:       uid,
		BID:       bid,
		Quantity:  qty,
		CreatedAt: time.Now(),
	}
	ms.itemsStor[item.IID] = item
	return nil
}

func (ms *MemStorage) GetCartItems(uid string) ([]models.CartItem, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var items []models.CartItem
	for _, item := range ms.itemsStor {
		if item.UID == uid {
			items = append(items, item)
		}
	}
	return items, nil
}

func (ms *MemStorage) UpdateCartItem(uid, iid string, qty int) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	item, ok := ms.itemsStor[iid]
	if !ok || item.UID != uid {
		return storerrors.ErrCartItemNotFound
	}
	ms.itemsStor[iid] = cart.WithQuantity(item, qty)
	return nil
}

func (ms *MemStorage) RemoveCartItem(uid, iid string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	item, ok := ms.itemsStor[iid]
	if !ok || item.UID != uid {
		return storerrors.ErrCartItemNotFound
	}
	delete(ms.itemsStor, iid)
	return nil
}

func (ms *MemStorage) ClearCart(uid string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var iids []string
	for iid, item := range ms.itemsStor {
		if item.UID == uid {
			iids = append(iids, iid)
		}
	}
	if len(iids) == 0 {
		return storerrors.ErrEmptyCart
	}
	for _, iid := range iids {
		delete(ms.itemsStor, iid)
	}
	return nil
}
