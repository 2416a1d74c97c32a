package bc

import "errors"

// ErrUnknownMarker is returned when a boundary face carries a marker that no
// condition has been registered for.
var ErrUnknownMarker = errors.New("unknown boundary marker")
