package bridge

import "errors"

var (
	// ErrAlreadyRunning is returned by Start on a supervisor that is running
	// or waiting to restart.
	ErrAlreadyRunning = errors.New("bridge: already running")

	// ErrNoBinary is returned when no bridge binary is configured.
	ErrNoBinary = errors.New("bridge: binary is required")

	// ErrUnhealthy is returned when the bridge fails consecutive health checks.
	ErrUnhealthy = errors.New("bridge: health checks failed")

	// ErrNoReport is returned by Monitor.Check before any health report arrives.
	ErrNoReport = errors.New("bridge: no health report received")

	// ErrOffline is returned by Monitor.Check when the bridge reports offline.
	ErrOffline = errors.New("bridge: offline")

	// ErrStale is returned by Monitor.Check when the last report is too old.
	ErrStale = errors.New("bridge: health report is stale")
)
