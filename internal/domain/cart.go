package domain

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	SessionID string     `bson:"session_id" json:"session_id"`
	Items     []CartItem `bson:"items" json:"items"`
	Open      bool       `bson:"open" json:"open"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartItem is one purchasable line in a cart. ID distinguishes
// product+variant combinations, so "granola-500g" and "granola-1kg"
// are separate lines.
type CartItem struct {
	ID       string  `bson:"id" json:"id"`
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	Image    string  `bson:"image" json:"image"`
	Quantity int     `bson:"quantity" json:"quantity"`
}

// Total is the sum of price × quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Find returns the index of the line with the given item id, or -1.
func (c *Cart) Find(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}
