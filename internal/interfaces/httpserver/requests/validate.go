package requests

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/hanzlah101/t3-clone/internal/domain/model"
)

// RegisterValidations installs custom binding validations on gin's
// validator engine. Must be called once before the engine starts.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("modelid", func(fl validator.FieldLevel) bool {
		return model.IsValid(fl.Field().String())
	})
}
