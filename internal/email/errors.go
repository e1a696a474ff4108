package email

import (
	"errors"
	"fmt"
)

// Category classifies an upstream failure
type Category string

const (
	// CategoryAuth means the upstream rejected the credential exchange
	CategoryAuth Category = "auth"

	// CategoryParse means the upstream answered with an unexpected shape
	CategoryParse Category = "parse"

	// CategoryTransport means the request failed or returned a non-2xx status
	CategoryTransport Category = "transport"
)

// FetchError is returned by fetchers when an upstream step fails
type FetchError struct {
	Category Category
	Provider string
	Message  string
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s error (%s): %s", e.Category, e.Provider, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AuthError creates a FetchError for a rejected credential exchange
func AuthError(provider, message string) *FetchError {
	return &FetchError{Category: CategoryAuth, Provider: provider, Message: message}
}

// ParseError creates a FetchError for an unexpected response shape
func ParseError(provider, message string, err error) *FetchError {
	return &FetchError{Category: CategoryParse, Provider: provider, Message: message, Err: err}
}

// TransportError creates a FetchError for a failed request
func TransportError(provider, message string, err error) *FetchError {
	return &FetchError{Category: CategoryTransport, Provider: provider, Message: message, Err: err}
}

// CategoryOf returns the category of the first FetchError in err's chain
func CategoryOf(err error) (Category, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Category, true
	}
	return "", false
}

// IsCategory reports whether err (or any error in its chain) is a FetchError of category c
func IsCategory(err error, c Category) bool {
	got, ok := CategoryOf(err)
	return ok && got == c
}
