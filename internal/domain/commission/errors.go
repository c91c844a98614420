package commission

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidDeal     = errors.New("invalid deal")
	ErrPartnerNotFound = errors.New("partner not found")
)
