package bulk

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

// ErrImportAborted matches any AbortedError via errors.Is.
var ErrImportAborted = shared.NewDomainError(shared.CodeImportAborted, "import aborted: some rows are invalid")

// AbortedError reports that reconciliation rejected rows, so nothing was
// written.
type AbortedError struct {
	RunID  uuid.UUID
	Errors []RowError
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("import aborted: %d invalid row(s)", len(e.Errors))
}

func (e *AbortedError) Is(target error) bool {
	return target == ErrImportAborted
}
