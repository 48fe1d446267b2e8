package handlers

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/services"
)

// RegisterValidators adds the custom binding tags used by request payloads
// ("nickname") to Gin's validator. It must run before routes serve traffic.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return v.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
		return services.ValidNickname(fl.Field().String())
	})
}
