package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type addCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) AddCoupon(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req addCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.promotionSvc.AddCoupon(c.Request.Context(), cartID, req.Code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newResultResponse(result)})
}

func (s *Server) RemoveCoupon(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}
	code := strings.TrimSpace(c.Param("code"))

	result, err := s.promotionSvc.RemoveCoupon(c.Request.Context(), cartID, code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newResultResponse(result)})
}

func (s *Server) AddReferral(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req addCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.promotionSvc.AddReferral(c.Request.Context(), cartID, req.Code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newResultResponse(result)})
}

func (s *Server) RemoveReferral(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := s.promotionSvc.RemoveReferral(c.Request.Context(), cartID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newResultResponse(result)})
}

func (s *Server) GetLoyaltySummary(c *gin.Context) {
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}

	points, pending, err := s.promotionSvc.LoyaltySummary(c.Request.Context(), cartID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"pending": pending,
		"points":  points,
	}})
}
