package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shekelfolio/internal/models"
)

// AssetHandler serves the fixed asset catalog.
type AssetHandler struct{}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler() *AssetHandler {
	return &AssetHandler{}
}

// AssetResponse represents one catalog asset in the response
type AssetResponse struct {
	Symbol      models.Asset `json:"symbol"`
	DisplayName string       `json:"display_name"`
	Description string       `json:"description"`
	FixedILS    bool         `json:"fixed_ils"`
}

// ListAssets returns the supported asset catalog
// @Summary     List supported assets
// @Description Get the fixed catalog of assets transactions can reference
// @Tags        assets
// @Accept      json
// @Produce     json
// @Success     200 {array} AssetResponse "Supported assets"
// @Router      /assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	assets := models.Assets()
	out := make([]AssetResponse, 0, len(assets))
	for _, asset := range assets {
		out = append(out, AssetResponse{
			Symbol:      asset,
			DisplayName: models.AssetDisplayNames[asset],
			Description: models.AssetDescriptions[asset],
			FixedILS:    asset.FixedILS(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"assets": out})
}
