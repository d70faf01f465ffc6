package books

import "time"

type Book struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Description   string     `json:"description"`
	Price         int        `json:"price"` // minor currency unit
	Stock         int        `json:"stock"`
	CoverImageURL string     `json:"cover_image_url"`
	DeletedAt     *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type NewBook struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	Description   string `json:"description"`
	Price         int    `json:"price" validate:"required,min=1"`
	Stock         int    `json:"stock" validate:"min=0"`
	CoverImageURL string `json:"cover_image_url"`
}

// Filter narrows and pages the catalog listing.
type Filter struct {
	Query    string
	MinPrice int
	MaxPrice int
	Sort     string
	Order    string
	Limit    int
	Offset   int
}
