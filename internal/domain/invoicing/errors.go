package invoicing

import (
	"fmt"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

// ErrNumberingConflict matches any NumberingConflictError via errors.Is.
var ErrNumberingConflict = shared.NewDomainError(shared.CodeNumberingConflict, "document number already taken")

// ErrExternalProvider matches any ExternalProviderError via errors.Is.
var ErrExternalProvider = shared.NewDomainError(shared.CodeExternalProvider, "fiscal provider rejected the document")

// NumberingConflictError is returned when another writer stored the same
// series and number first.
type NumberingConflictError struct {
	Series string
	Number int
}

func (e *NumberingConflictError) Error() string {
	return fmt.Sprintf("document number %s-%s already taken", e.Series, FormatNumber(e.Number))
}

func (e *NumberingConflictError) Is(target error) bool {
	return target == ErrNumberingConflict
}

// ExternalProviderError wraps any failure talking to the fiscal provider.
// Raw holds the provider's response body verbatim when one was received.
type ExternalProviderError struct {
	StatusCode int
	Message    string
	Raw        []byte
	Err        error
}

func (e *ExternalProviderError) Error() string {
	msg := "fiscal provider error"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExternalProviderError) Unwrap() error {
	return e.Err
}

func (e *ExternalProviderError) Is(target error) bool {
	return target == ErrExternalProvider
}
