package dto

import "time"

// CreateProductRequest lists exactly the fields a seller may set.
type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int32  `json:"stock"`
}

// ProductResponse describes a catalog entry.
type ProductResponse struct {
	ID          int64     `json:"id"`
	SellerID    int64     `json:"seller_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	Stock       int32     `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductsPageResponse is a paginated catalog listing.
type ProductsPageResponse struct {
	Products []ProductResponse `json:"products"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int64             `json:"total"`
}
