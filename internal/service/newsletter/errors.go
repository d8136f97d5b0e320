package newsletter

import "errors"

// Sentinel errors for the newsletter service layer.
var (
	ErrNotFound          = errors.New("subscriber not found")
	ErrAlreadySubscribed = errors.New("email already subscribed")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidAge        = errors.New("age must be between 13 and 150")
	ErrStoreUnavailable  = errors.New("subscriber store unavailable")
)
