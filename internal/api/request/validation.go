package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/edvin/grantdesk/internal/config"
)

var validate = validator.New()

func init() {
	validate.RegisterValidation("environment", func(fl validator.FieldLevel) bool {
		return config.Environment(fl.Field().String()).Valid()
	})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// DecodeObject decodes a free-form JSON object. An empty body decodes to an
// empty object unless required is set.
func DecodeObject(r *http.Request, required bool) (map[string]any, error) {
	var obj map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil && !(errors.Is(err, io.EOF) && !required) {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if obj == nil {
		obj = map[string]any{}
	}
	if required {
		if err := validate.Var(obj, "min=1"); err != nil {
			return nil, fmt.Errorf("validation error: empty object")
		}
	}
	return obj, nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}
