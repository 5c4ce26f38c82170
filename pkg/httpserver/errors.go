package httpserver

import "errors"

// Failures returned by Run. Match them with errors.Is.
var (
	ErrStart          = errors.New("httpserver: listener failed")
	ErrAlreadyRunning = errors.New("httpserver: server already running")
	ErrShutdown       = errors.New("httpserver: drain or stop hook failed")
)
