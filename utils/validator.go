package utils

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	models "github.com/solvetogather/solvetogather-go/models"
)

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return models.IsPaymentMethod(fl.Field().String())
	})
}
