// Package validator wraps go-playground/validator for request bodies.
//
// Field names in errors are the JSON names of the struct fields. ValidateInput
// converts the first missing required field to an apperrors MissingField error
// so handlers can return it unchanged.
package validator
