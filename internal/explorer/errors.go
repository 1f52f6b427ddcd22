package explorer

import (
	"errors"
	"io/fs"
	"strings"

	perrors "github.com/jmgilman/go/errors"
)

const (
	// CodePartial marks an operation that changed the filesystem but did not
	// finish, for example a move whose copy succeeded but whose source
	// could not be removed.
	CodePartial perrors.ErrorCode = "PARTIAL_COMPLETION"

	// CodeCancelled marks an operation the user declined at a confirmation prompt.
	CodeCancelled perrors.ErrorCode = "CANCELLED"
)

// ErrCancelled is returned when a confirmation is declined.
var ErrCancelled = perrors.New(CodeCancelled, "operation cancelled")

// classify maps an OS error to an error code.
func classify(err error) perrors.ErrorCode {
	var pe perrors.PlatformError
	switch {
	case errors.As(err, &pe):
		return pe.Code()
	case errors.Is(err, fs.ErrNotExist):
		return perrors.CodeNotFound
	case errors.Is(err, fs.ErrExist):
		return perrors.CodeAlreadyExists
	case errors.Is(err, fs.ErrPermission):
		return perrors.CodeForbidden
	default:
		return perrors.CodeExecutionFailed
	}
}

// fsError wraps an OS error for the item the caller asked about.
func fsError(err error, message, path string) error {
	return perrors.WithContext(perrors.Wrap(err, classify(err), message), "path", path)
}

// failedAt wraps an error raised part-way through a tree operation, naming
// the sub-path that failed.
func failedAt(err error, message, path string) error {
	return perrors.WithContext(perrors.Wrap(err, classify(err), message), "failed_path", path)
}

// keepCode wraps err with a new message but keeps its code.
func keepCode(err error, message string) error {
	return perrors.Wrap(err, perrors.GetCode(err), message)
}

// rootCode returns the code of the innermost coded error in err's chain.
func rootCode(err error) perrors.ErrorCode {
	code := classify(err)
	for e := err; e != nil; e = errors.Unwrap(e) {
		if pe, ok := e.(perrors.PlatformError); ok {
			code = pe.Code()
		}
	}
	return code
}

// FailedPath returns the innermost sub-path recorded on err, if any.
func FailedPath(err error) (string, bool) {
	var found string
	for e := err; e != nil; e = errors.Unwrap(e) {
		pe, ok := e.(perrors.PlatformError)
		if !ok {
			continue
		}
		if p, ok := pe.Context()["failed_path"].(string); ok {
			found = p
		}
	}
	return found, found != ""
}

// Describe renders err as a single human-readable line without error codes.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var parts []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		pe, ok := e.(perrors.PlatformError)
		if !ok {
			parts = append(parts, e.Error())
			break
		}
		if msg := pe.Message(); msg != "" && (len(parts) == 0 || parts[len(parts)-1] != msg) {
			parts = append(parts, msg)
		}
	}
	msg := strings.Join(parts, ": ")
	if p, ok := FailedPath(err); ok {
		msg += " (at " + p + ")"
	}
	return msg
}
