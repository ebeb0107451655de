// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("jsonvalue", validateJSONValue)
}

// validateJSONValue rejects raw JSON fields that are absent or null
func validateJSONValue(fl validator.FieldLevel) bool {
	raw := bytes.TrimSpace(fl.Field().Bytes())
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// Validate checks a decoded request body against its struct tags
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(err))
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag())
}
