package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shekelfolio/internal/services"
)

// PortfolioHandler handles portfolio valuation requests.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// GetHoldings returns the user's current holdings with live pricing
// @Summary     Get current holdings
// @Description Get the authenticated user's current positions with live quotes, converted to ILS
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.AssetHolding "Current holdings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Upstream price or FX data unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolio/holdings [get]
func (h *PortfolioHandler) GetHoldings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	holdings, err := h.portfolioService.Holdings(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

// GetHistory returns the user's historical portfolio value series
// @Summary     Get portfolio history
// @Description Replay the user's transactions against daily price history to produce a portfolio value series in ILS
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  valuation.ValuePoint "Daily portfolio values, oldest first"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Valuation failed: upstream price or FX data unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolio/history [get]
func (h *PortfolioHandler) GetHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	series, err := h.portfolioService.History(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": series})
}
