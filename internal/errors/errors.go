// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidRepoFormat is returned when a repository string is not in
// 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ErrUpstreamUnavailable indicates a transport-level failure talking to the
// upstream API. Not retried by the sync engine; the job fails.
type ErrUpstreamUnavailable struct {
	Err error
}

func (e *ErrUpstreamUnavailable) Error() string {
	return fmt.Sprintf("upstream unavailable: %v", e.Err)
}

func (e *ErrUpstreamUnavailable) Unwrap() error { return e.Err }

// ErrUpstreamRejected indicates the upstream returned an explicit non-success
// status. Status and body are preserved for diagnostics.
type ErrUpstreamRejected struct {
	StatusCode int
	Body       string
}

func (e *ErrUpstreamRejected) Error() string {
	return fmt.Sprintf("upstream rejected request: status %d: %s", e.StatusCode, e.Body)
}

// ErrMalformedResponse indicates an upstream page could not be decoded.
// Fatal for the current run; retrying an unparsable response rarely helps.
type ErrMalformedResponse struct {
	Err error
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed upstream response: %v", e.Err)
}

func (e *ErrMalformedResponse) Unwrap() error { return e.Err }

// ErrRepositoryNotFound indicates the target repository does not exist
// upstream (or, on read paths, has never been synced).
type ErrRepositoryNotFound struct {
	Owner string
	Name  string
}

func (e *ErrRepositoryNotFound) Error() string {
	return fmt.Sprintf("repository %s/%s not found", e.Owner, e.Name)
}

// ErrPersistence indicates a store operation failed. Fatal for the run;
// rows committed by earlier pages stay visible.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error { return e.Err }

// ErrInvalidRequest is returned for requests rejected before any work starts
// (unknown metric, too many repositories, bad parameters).
type ErrInvalidRequest struct {
	Reason string
}

func (e *ErrInvalidRequest) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}
