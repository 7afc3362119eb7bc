package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/promosync/internal/catalog/domain"
)

type createProductRequest struct {
	SKU            string `json:"sku"`
	MasterSKU      string `json:"master_sku"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Currency       string `json:"currency"`
	Orderable      *bool  `json:"orderable"`
}

type productResponse struct {
	ID             string `json:"id"`
	SKU            string `json:"sku"`
	MasterSKU      string `json:"master_sku,omitempty"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Currency       string `json:"currency"`
	Orderable      bool   `json:"orderable"`
}

func newProductResponse(p *catalogdomain.Product) productResponse {
	return productResponse{
		ID:             p.ID.String(),
		SKU:            p.SKU,
		MasterSKU:      p.MasterSKU,
		Name:           p.Name,
		UnitPriceCents: p.UnitPrice,
		Currency:       p.Currency,
		Orderable:      p.Orderable,
	}
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.catalogSvc.Create(c.Request.Context(), catalogdomain.CreateRequest{
		SKU:       req.SKU,
		MasterSKU: req.MasterSKU,
		Name:      req.Name,
		UnitPrice: req.UnitPriceCents,
		Currency:  req.Currency,
		Orderable: req.Orderable,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newProductResponse(product)})
}

func (s *Server) GetProductBySKU(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))

	product, err := s.catalogSvc.Lookup(c.Request.Context(), sku)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if product == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newProductResponse(product)})
}
