package domain

import (
	"github.com/google/uuid"
	"github.com/jmgilman/go/errors"
)

// CodeBadReference marks a supplied identifier that does not have the shape
// of an id. It is a caller defect, distinct from CodeNotFound.
const CodeBadReference errors.ErrorCode = "BAD_REFERENCE"

var (
	ErrProductNotFound = errors.New(errors.CodeNotFound, "product not found")
	ErrCartNotFound    = errors.New(errors.CodeNotFound, "cart not found")
	ErrItemNotFound    = errors.New(errors.CodeNotFound, "item not found in cart")
	ErrUserNotFound    = errors.New(errors.CodeNotFound, "user not found")

	ErrQuantityLimit = errors.Newf(errors.CodeInvalidInput, "quantity must not exceed %d", MaxItemQuantity)

	ErrInvalidCredentials = errors.New(errors.CodeUnauthorized, "invalid credentials")
	ErrUserExists         = errors.New(errors.CodeAlreadyExists, "user already exists")
)

// ParseID parses raw as a uuid. Anything else is reported as a bad reference
// naming field.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, BadReference(field, raw)
	}
	return id, nil
}

// BadReference builds the error returned for malformed identifiers.
func BadReference(field, value string) error {
	return errors.WithContext(
		errors.Newf(CodeBadReference, "invalid %s format", field),
		field, value,
	)
}

// Invalid builds a validation error for caller input.
func Invalid(message string) error {
	return errors.New(errors.CodeInvalidInput, message)
}

// StoreFailure wraps an error returned by a store adapter.
func StoreFailure(err error, op string) error {
	return errors.WrapWithContext(err, errors.CodeDatabase, "store operation failed", map[string]interface{}{
		"op": op,
	})
}

func IsNotFound(err error) bool {
	return err != nil && errors.GetCode(err) == errors.CodeNotFound
}

func IsBadReference(err error) bool {
	return err != nil && errors.GetCode(err) == CodeBadReference
}

func IsInvalid(err error) bool {
	return err != nil && errors.GetCode(err) == errors.CodeInvalidInput
}

func IsStoreFailure(err error) bool {
	return err != nil && errors.GetCode(err) == errors.CodeDatabase
}
