package shared

import "errors"

// Domain error codes. The HTTP layer maps each to an API code and status.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeAssetUnavailable  = "ASSET_UNAVAILABLE"
	CodeMalformedSnapshot = "MALFORMED_ORDER_SNAPSHOT"
	CodePersistenceWrite  = "PERSISTENCE_WRITE_FAILED"
	CodeRenderingFailed   = "RENDERING_FAILED"
)

// Coded is implemented by errors that carry a domain error code
type Coded interface {
	error
	Code() string
}

// DomainError is a coded error whose message is safe to show to clients
type DomainError struct {
	code    string
	message string
}

// NewDomainError creates a DomainError with a machine-readable code
func NewDomainError(code, message string) *DomainError {
	return &DomainError{code: code, message: message}
}

func (e *DomainError) Error() string { return e.message }

func (e *DomainError) Code() string { return e.code }

// Is matches any DomainError with the same code, so
// errors.Is(err, ErrNotFound) holds for every not-found error
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.code == e.code
}

var (
	ErrNotFound      = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput  = NewDomainError(CodeInvalidInput, "Invalid input provided")
)

// CodeOf returns the code of the first coded error in err's chain
func CodeOf(err error) (string, bool) {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code(), true
	}
	return "", false
}
