package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	UID       string    `json:"uid,omitempty"`
	Username  string    `json:"username" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Pass      string    `json:"-"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Book struct {
	BID       string          `json:"bid,omitempty"`
	Label     string          `json:"label" validate:"required"`
	Author    string          `json:"author" validate:"required"`
	Desc      string          `json:"desc"`
	Price     decimal.Decimal `json:"price"`
	Genre     string          `json:"genre"`
	CoverURL  string          `json:"cover_url,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// BookUpdate carries a partial book change: nil fields stay untouched.
type BookUpdate struct {
	Label    *string          `json:"label"`
	Author   *string          `json:"author"`
	Desc     *string          `json:"desc"`
	Price    *decimal.Decimal `json:"price"`
	Genre    *string          `json:"genre"`
	CoverURL *string          `json:"cover_url"`
}

// Apply copies the set fields of the update onto the book.
func (u BookUpdate) Apply(book *Book) {
	if u.Label != nil {
		book.Label = *u.Label
	}
	if u.Author != nil {
		book.Author = *u.Author
	}
	if u.Desc != nil {
		book.Desc = *u.Desc
	}
	if u.Price != nil {
		book.Price = *u.Price
	}
	if u.Genre != nil {
		book.Genre = *u.Genre
	}
	if u.CoverURL != nil {
		book.CoverURL = *u.CoverURL
	}
}

type CartItem struct {
	IID       string    `json:"iid,omitempty"`
	UID       string    `json:"uid,omitempty"`
	BID       string    `json:"bid"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
