package shop

import "errors"

// Shop module errors.
var (
	ErrBannerNotFound = errors.New("banner not found")
	ErrBannerInactive = errors.New("banner not for sale")
	ErrAlreadyOwned   = errors.New("banner already owned")
	ErrNotOwned       = errors.New("banner not owned")
	ErrImageTooLarge  = errors.New("banner image too large")
)
