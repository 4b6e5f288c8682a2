package entity

import "time"

// CartItem is one (product, quantity) line of a signed-in user's cart.
// Product is a snapshot joined at read time.
type CartItem struct {
	ID        int       `json:"id"`
	UserID    int       `json:"-"`
	ProductID int       `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	Product   Product   `json:"product"`
}
