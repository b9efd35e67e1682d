package transit

import "errors"

// ErrMalformedRoute is returned when a provider route lacks mandatory fields.
var ErrMalformedRoute = errors.New("transit: malformed route")
