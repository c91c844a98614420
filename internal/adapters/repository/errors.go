package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrDealNotFound    = errors.New("deal not found")
	ErrPartnerNotFound = errors.New("partner not found")
	ErrDealImmutable   = errors.New("lost deal is immutable")
	ErrInvalidRecord   = errors.New("invalid record")
)
