package receipt

import "errors"

// ErrNoAmount is returned when no plausible total can be extracted.
var ErrNoAmount = errors.New("no amount detected")
