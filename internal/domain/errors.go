package domain

import "errors"

var (
	// ErrNoData is returned when a gauge has no eligible readings. Callers must
	// not run an allocation against a failed forecast.
	ErrNoData = errors.New("no data available")

	// ErrInvalidMode is returned for an allocation mode outside the allowed set.
	ErrInvalidMode = errors.New("invalid allocation mode")

	// ErrEmptyRequest is returned when an assessment request names neither
	// gauges nor explicit zone probabilities.
	ErrEmptyRequest = errors.New("assessment request has no gauges and no zone probabilities")

	// ErrInvalidRequest is returned when a raw request fails schema validation
	// or cannot be decoded.
	ErrInvalidRequest = errors.New("invalid assessment request")
)

// IsPermanent reports whether err describes a request that will fail the same
// way on every attempt. Anything else, such as an unreachable reading store,
// may succeed on retry.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrEmptyRequest) ||
		errors.Is(err, ErrNoData)
}
