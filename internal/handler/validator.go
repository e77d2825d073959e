package handler

import (
    "github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound request bodies.
// Struct tags carry the rules; handlers translate failures into 400s.
type Validator struct {
    validate *validator.Validate
}

// NewValidator returns a Validator with the default tag name ("validate").
func NewValidator() *Validator {
    return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
    return v.validate.Struct(i)
}
