package policy

import "errors"

// ErrUnknownPolicy is returned when a policy name does not resolve.
var ErrUnknownPolicy = errors.New("unknown concurrency policy")
