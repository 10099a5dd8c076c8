package domain

import "github.com/pkg/errors"

var (
	// ErrMissingCredential is returned when a required secret is absent or empty.
	ErrMissingCredential = errors.New("missing credential")
	// ErrNetworkFailure wraps transport errors of outbound requests.
	ErrNetworkFailure = errors.New("network failure")
	// ErrBadResponse is returned for non-2xx statuses and bodies of unexpected shape.
	ErrBadResponse = errors.New("bad response")
	// ErrInvalidBalance is returned for balances that have no uint256 representation.
	ErrInvalidBalance = errors.New("invalid balance")
	// ErrUploadFailure is returned when the DON does not acknowledge the secrets upload.
	ErrUploadFailure = errors.New("failed to upload secrets to the DON")
	// ErrLimitExceeded is returned when a script breaks one of the sandbox limits.
	ErrLimitExceeded = errors.New("sandbox limit exceeded")
)
