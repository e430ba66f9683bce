package errors

import "errors"

// Sentinels for callers that branch on the failure kind.
var (
	ErrConflictingArguments = errors.New("conflicting arguments")
	ErrUnknownCommit        = errors.New("unknown short commit hash")
	ErrUnknownSubproject    = errors.New("unknown subproject")
	ErrUncommittedChanges   = errors.New("uncommitted changes")
)

// Config errors

// ConfigConflict reports a "specify A or B, not both or neither" violation.
func ConfigConflict(a, b string) *ManagerError {
	return Wrap(ErrConflictingArguments, CategoryConfig, SeverityFatal, "specify "+a+" or "+b).
		WithContext("first", a).
		WithContext("second", b)
}

func ConfigInvalid(path string, cause error) *ManagerError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *ManagerError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func UnknownSubproject(name string) *ManagerError {
	return Wrap(ErrUnknownSubproject, CategoryConfig, SeverityFatal, "unknown subproject").
		WithContext("name", name)
}

// I/O errors

func IOFailed(operation, path string, cause error) *ManagerError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, operation+" failed").
		WithContext("path", path)
}

func FetchFailed(url string, cause error) *ManagerError {
	return Wrap(cause, CategoryNetwork, SeverityFatal, "fetch failed").
		WithContext("url", url)
}

// External process errors

func ProcessFailed(command string, cause error) *ManagerError {
	return Wrap(cause, CategoryProcess, SeverityFatal, "external command failed").
		WithContext("command", command)
}

func PreviewFailed(command string, cause error) *ManagerError {
	return Wrap(cause, CategoryProcess, SeverityWarning, "preview command failed").
		WithContext("command", command)
}

// Lookup errors

func UnresolvedCommit(short string) *ManagerError {
	return Wrap(ErrUnknownCommit, CategoryLookup, SeverityFatal, "cannot resolve commit").
		WithContext("commit", short)
}

func TemplateFailed(name string, cause error) *ManagerError {
	return Wrap(cause, CategoryLookup, SeverityFatal, "template expression failed").
		WithContext("expression", name)
}

// Git errors

func GitFailed(operation, path string, cause error) *ManagerError {
	return Wrap(cause, CategoryGit, SeverityFatal, "git "+operation+" failed").
		WithContext("repository", path)
}

func Uncommitted(path string) *ManagerError {
	return Wrap(ErrUncommittedChanges, CategoryGit, SeverityFatal, "uncommitted changes found, commit first, then retry").
		WithContext("repository", path)
}

// Internal errors

func InternalError(message string, cause error) *ManagerError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
