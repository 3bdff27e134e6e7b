package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// FailValidation writes a 400 envelope listing the failing field tags.
func FailValidation(w http.ResponseWriter, err error) {
	fields := make(map[string]any)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fieldErr := range verrs {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
	}
	Fail(w, http.StatusBadRequest, CodeValidation, "validation failed", fields)
}
