package domain

import (
	"context"
	"errors"
)

var (
	ErrMissingFields        = errors.New("missing required fields")
	ErrInvalidType          = errors.New("invalid field type")
	ErrInvalidEnum          = errors.New("invalid enum value")
	ErrNoMedia              = errors.New("at least one media file is required")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingParameter     = errors.New("missing parameter")

	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTokenRevoked    = errors.New("token has been revoked")
	ErrForbidden       = errors.New("action forbidden")

	ErrListingNotFound = errors.New("listing not found")
	ErrOwnerNotFound   = errors.New("owner not found")

	ErrMediaUploadFailed = errors.New("media upload failed")
	ErrMediaDeleteFailed = errors.New("media delete failed")

	ErrInternal = errors.New("internal error")
	ErrTimeout  = errors.New("operation timed out")
)

// IsTimeout reports whether err came from an expired deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout)
}
