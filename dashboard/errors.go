package dashboard

import "errors"

// ErrUpstream wraps market data failures.
var ErrUpstream = errors.New("market data unavailable")
