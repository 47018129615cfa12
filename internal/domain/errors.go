package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job cannot be found by ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrUnknownModel is returned when the requested model is not configured.
	ErrUnknownModel = errors.New("unknown or unsupported model")

	// ErrEmptyDataFile is returned when the uploaded data file is empty.
	ErrEmptyDataFile = errors.New("data file cannot be empty")

	// ErrPayloadTooLarge is returned when the data file exceeds the size limit.
	ErrPayloadTooLarge = errors.New("data file exceeds maximum size")

	// ErrLaunch is matched by every LaunchError.
	ErrLaunch = errors.New("solver could not be launched")

	// ErrNoSolution is returned by the output parser when the solver found none.
	ErrNoSolution = errors.New("solver output contains no solution")

	// ErrCacheMiss is returned by result caches on a miss.
	ErrCacheMiss = errors.New("result not cached")

	// ErrPoolClosed is returned when work is submitted to a stopped pool.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// LaunchError reports that the solver binary could not be found or spawned.
// No job is registered when it is returned.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLaunch) hold for any LaunchError.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }
