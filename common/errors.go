package common

import "errors"

var (
	ErrorInvalidValue = errors.New("invalid value")

	// ErrorInvalidInput marks malformed arguments: empty sample sets, non-positive
	// bandwidths, dimension mismatches, fold counts out of range.
	ErrorInvalidInput = errors.New("invalid input")

	// ErrorNumericInstability is returned when a density result is not finite
	// after the log-sum-exp reduction.
	ErrorNumericInstability = errors.New("numeric instability")
)
