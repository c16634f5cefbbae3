package models

// OrderItem is a snapshot of a purchased product, kept inside the order row.
type OrderItem struct {
	ProductID uint    `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Image     string  `json:"image,omitempty"`
}
