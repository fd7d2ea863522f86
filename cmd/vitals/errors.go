package main

import (
	"errors"

	"github.com/srg/vitals/internal/sensor"
)

// FormatUserError rewrites well-known error chains into actionable messages
// for the terminal; everything else passes through unchanged.
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, sensor.ErrTimeout):
		return "a sensor source did not answer in time - check that the device is in range and powered on"
	case errors.Is(err, sensor.ErrNotBound):
		return "sensor source is not bound - run 'vitals watch' to bind all slots"
	default:
		return err.Error()
	}
}
