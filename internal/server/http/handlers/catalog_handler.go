package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/server/http/dto"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// CatalogHandler manages product catalog endpoints.
type CatalogHandler struct {
	facade CatalogFacade
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(facade CatalogFacade) *CatalogHandler {
	return &CatalogHandler{facade: facade}
}

// Create handles POST /api/products.
func (h *CatalogHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
			Errors: map[string]string{"price": "must be a decimal number"},
		})
		return
	}

	product, err := h.facade.CreateProduct(c.Request.Context(), CurrentUserID(c), CurrentUserRole(c), usecase.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
	})
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrUnauthorized):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrInvalidProduct):
			c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(*product))
}

// List handles GET /api/products.
func (h *CatalogHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	products, total, err := h.facade.Products(c.Request.Context(), page, pageSize)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	response := dto.ProductsPageResponse{
		Products: make([]dto.ProductResponse, 0, len(products)),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}
	for _, p := range products {
		response.Products = append(response.Products, toProductResponse(p))
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/products/:id.
func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	product, err := h.facade.Product(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*product))
}

func toProductResponse(p model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}
