package cmn

import "fmt"

// Kind classifies a domain error per the error-handling design: it decides
// whether a failure surfaces as a JSON-RPC protocol error or a successful
// MCP tool result with isError=true.
type Kind int

const (
	KindProtocol Kind = iota
	KindDocumentNotFound
	KindOldStringNotFound
	KindOldStringNotUnique
	KindDocumentChanged
	KindReadBeforeEdit
	KindInvalidRegex
	KindInvalidConfig
	KindInvalidChannel
)

// Error is the relay's domain error type. Kind lets callers at the MCP
// boundary decide isError vs. protocol-error without string matching.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func NewErrDocumentNotFound(path string) *Error {
	return newErr(KindDocumentNotFound, "document not found: %s", path)
}

func NewErrOldStringNotFound() *Error {
	return newErr(KindOldStringNotFound, "old_string not found")
}

func NewErrOldStringNotUnique(path string, n int) *Error {
	return newErr(KindOldStringNotUnique, "old_string is not unique in %s (%d occurrences found)", path, n)
}

func NewErrDocumentChanged() *Error {
	return newErr(KindDocumentChanged, "document changed since read; re-read and try again")
}

func NewErrReadBeforeEdit() *Error {
	return newErr(KindReadBeforeEdit, "You must read this document before editing it. Call read first.")
}

func NewErrInvalidRegex(pattern string, cause error) *Error {
	return newErr(KindInvalidRegex, "invalid regex %q: %v", pattern, cause)
}

func NewErrInvalidConfig(msg string) *Error {
	return newErr(KindInvalidConfig, "invalid config: %s", msg)
}

func NewErrInvalidChannel(name string) *Error {
	return newErr(KindInvalidChannel, "invalid channel name: %s", name)
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}
