package linkedin

import (
	"errors"
	"fmt"
)

// Sentinel errors for the publish and identity pipeline. Handlers map these
// to HTTP statuses; upstream response bodies never travel with them.
var (
	// ErrUploadRegistration means phase 1 did not yield both an upload URL
	// and an asset URN
	ErrUploadRegistration = errors.New("upload registration failed")

	// ErrUpload means the binary PUT to the pre-signed URL was not accepted
	ErrUpload = errors.New("image upload failed")

	// ErrPostCreation means the final post request was rejected
	ErrPostCreation = errors.New("post creation failed")

	// ErrAuthExpired means the upstream rejected the bearer token; callers
	// must clear the session and re-run the authorization flow
	ErrAuthExpired = errors.New("authentication expired")

	// ErrIdentityExtraction means no resolver strategy produced a subject
	ErrIdentityExtraction = errors.New("identity extraction failed")
)

// RateLimitedError carries the upstream retry delay. RetryAfter is always a
// positive number of seconds (default 60 when the upstream omits the header).
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfter)
}

// apiError is the internal representation of a non-success upstream response
type apiError struct {
	status     int
	retryAfter int
}

func (e *apiError) Error() string {
	return fmt.Sprintf("linkedin api error: status %d", e.status)
}
