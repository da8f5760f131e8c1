package canon

import "errors"

// Canonicalization error codes are part of the public contract: renaming
// them breaks log analysis and downstream tooling that matches on the code
// string, so these values must never change once shipped.
const (
	CodeInvalidNumber              = "CANON_INVALID_NUMBER"
	CodeNonStringKey               = "CANON_NON_STRING_KEY"
	CodeForbiddenType              = "CANON_FORBIDDEN_TYPE"
	CodeDuplicateKeyAfterNormalize = "CANON_DUPLICATE_KEY_AFTER_NORMALIZATION"
	CodeEncodingError              = "CANON_ENCODING_ERROR"
	// CodeMaxDepthExceeded is the dedicated depth-limit code spec.md §5 left
	// as an implementation choice: pathological nesting is rejected with its
	// own code rather than overloading CANON_FORBIDDEN_TYPE.
	CodeMaxDepthExceeded = "CANON_MAX_DEPTH_EXCEEDED"
)

// codeAliases maps any renamed code to its current form; codes with no entry
// here resolve to themselves (see ResolveCode). Registered rename:
// CANON_DUPLICATE_KEY_AFTER_NORMALIZE -> CANON_DUPLICATE_KEY_AFTER_NORMALIZATION.
var codeAliases = map[string]string{
	"CANON_DUPLICATE_KEY_AFTER_NORMALIZE": CodeDuplicateKeyAfterNormalize,
}

// legacyCodes is the reverse of codeAliases: current code -> historical code.
var legacyCodes = map[string]string{
	CodeDuplicateKeyAfterNormalize: "CANON_DUPLICATE_KEY_AFTER_NORMALIZE",
}

// ResolveCode maps a possibly-legacy code to its current form. Codes with no
// registered alias resolve to themselves.
func ResolveCode(code string) string {
	if resolved, ok := codeAliases[code]; ok {
		return resolved
	}
	return code
}

// LegacyCode returns the historical code for a current code, or the code
// itself if no rename has ever occurred for it.
func LegacyCode(code string) string {
	if legacy, ok := legacyCodes[code]; ok {
		return legacy
	}
	return code
}

// Error is a canonicalization failure carrying a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is enables errors.Is(err, canon.ErrInvalidNumber) style matching against
// the sentinel errors below, comparing by code rather than pointer identity.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Sentinel errors for errors.Is-style matching, one per code.
var (
	ErrInvalidNumber              = &Error{Code: CodeInvalidNumber}
	ErrNonStringKey               = &Error{Code: CodeNonStringKey}
	ErrForbiddenType              = &Error{Code: CodeForbiddenType}
	ErrDuplicateKeyAfterNormalize = &Error{Code: CodeDuplicateKeyAfterNormalize}
	ErrEncodingError              = &Error{Code: CodeEncodingError}
	ErrMaxDepthExceeded           = &Error{Code: CodeMaxDepthExceeded}
)

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}
