package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createCartRequest struct {
	CurrencyCode string `json:"currency_code"`
}

func (s *Server) CreateCart(c *gin.Context) {
	var req createCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	cart, err := s.cartSvc.Create(c.Request.Context(), strings.TrimSpace(req.CurrencyCode))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newCartResponse(cart, nil)})
}

func (s *Server) GetCart(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}

	cart, err := s.cartSvc.Get(c.Request.Context(), cartID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newCartResponse(cart, nil)})
}

func (s *Server) RefreshCart(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := s.promotionSvc.Refresh(c.Request.Context(), cartID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newResultResponse(result)})
}

type addItemRequest struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

func (s *Server) AddItem(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.promotionSvc.AddItem(c.Request.Context(), cartID, strings.TrimSpace(req.SKU), req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newResultResponse(result)})
}

type updateItemRequest struct {
	Quantity int64 `json:"quantity"`
}

func (s *Server) UpdateItemQuantity(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.promotionSvc.UpdateItemQuantity(c.Request.Context(), cartID, itemID, req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newResultResponse(result)})
}

func (s *Server) RemoveItem(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}

	result, err := s.promotionSvc.RemoveItem(c.Request.Context(), cartID, itemID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newResultResponse(result)})
}

func (s *Server) Checkout(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := s.promotionSvc.CloseSession(c.Request.Context(), cartID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newResultResponse(result)})
}

func parseID(c *gin.Context, param string) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param(param))
	id, err := snowflake.ParseString(raw)
	if err != nil {
		AbortWithError(c, newValidationError(param, "invalid_id", "invalid identifier"))
		return 0, false
	}
	return id, true
}
