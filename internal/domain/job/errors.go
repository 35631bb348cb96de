package job

import "errors"

var (
	// ErrInvalidRequest is returned when a generation request fails validation.
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrImageNotFound is returned when the reference image does not resolve.
	ErrImageNotFound = errors.New("image not found")

	// ErrVoiceNotFound is returned when a required voice sample does not resolve.
	ErrVoiceNotFound = errors.New("voice file not found")

	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("video job not found")

	// ErrJobTerminal is returned when cancelling a finished job.
	ErrJobTerminal = errors.New("video job already finished")

	// ErrResultNotReady is returned when downloading before completion.
	ErrResultNotReady = errors.New("video not ready")

	// ErrShuttingDown is returned for submissions after Stop.
	ErrShuttingDown = errors.New("orchestrator is shutting down")

	// ErrInvalidTransition is returned for a state change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid job state transition")

	errJobCancelled = errors.New("job cancelled")
	errShutdown     = errors.New("server shutting down")
)
