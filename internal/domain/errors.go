package domain

import "errors"

// ErrCartNotFound is returned by cart stores when no snapshot exists for an id.
var ErrCartNotFound = errors.New("cart not found")
