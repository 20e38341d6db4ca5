package remote

// Error is a network failure or non-2xx response from the detector.
// StatusCode is 0 when no response was received.
type Error struct {
	Message    string
	StatusCode int
	Body       []byte
	cause      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}
