// Package cart holds the state-transition rules for cart lines. A cart is
// keyed by (user, book): adding the same book again merges into the existing
// line instead of creating a second one.
package cart

import "github.com/akazieva/bookstore/internal/domain/models"

const DefaultQuantity = 1

// ValidQuantity reports whether qty may appear on a cart line.
func ValidQuantity(qty int) bool {
	return qty >= 1
}

// Merged returns the line after adding qty more copies of its book.
func Merged(line models.CartItem, qty int) models.CartItem {
	line.Quantity += qty
	return line
}

// WithQuantity returns the line with its quantity replaced, not merged.
func WithQuantity(line models.CartItem, qty int) models.CartItem {
	line.Quantity = qty
	return line
}
