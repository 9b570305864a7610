package board

import "errors"

// Structural errors. The board enforces consistency only; rule legality
// lives in the dispatcher layer above.
var (
	ErrZoneOccupied     = errors.New("zone occupied")
	ErrZoneEmpty        = errors.New("zone empty")
	ErrInvalidZone      = errors.New("invalid zone index")
	ErrInstanceNotFound = errors.New("card instance not found")
)
