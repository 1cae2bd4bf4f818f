package client

import "errors"

// ErrUnknownDestination indicates a C-MOVE destination AE Title has no
// entry in the configured Directory.
var ErrUnknownDestination = errors.New("unknown move destination AE title")
