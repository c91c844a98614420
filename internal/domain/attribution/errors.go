package attribution

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownModel = errors.New("unknown attribution model")
	ErrInvalidDeal  = errors.New("invalid deal")
)
