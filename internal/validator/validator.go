// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"shekelfolio/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("asset", validateAsset)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
}

// validateAsset checks that the field is one of the supported assets.
func validateAsset(fl validator.FieldLevel) bool {
	return models.Asset(fl.Field().String()).Valid()
}

// validateTransactionType checks that the field is "buy" or "sell".
func validateTransactionType(fl validator.FieldLevel) bool {
	switch models.TransactionType(fl.Field().String()) {
	case models.TransactionTypeBuy, models.TransactionTypeSell:
		return true
	default:
		return false
	}
}
