package download

import "fmt"

// TransportError is a network or HTTP failure during a download. The
// partial file is preserved exactly as far as it was flushed, so the
// transfer can resume. No retry happens inside the engine.
type TransportError struct {
	URL    string
	Status string // HTTP status line, when the server answered at all
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("download %s: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IncompleteDataError means the stream ended short: either no usable
// bytes arrived when some were expected, or the body ended before the
// known expected length. The partial file is left as flushed.
type IncompleteDataError struct {
	URL      string
	Received int64
	Expected int64 // -1 when the expected length was unknown
}

func (e *IncompleteDataError) Error() string {
	if e.Expected >= 0 {
		return fmt.Sprintf("download %s: stream ended at %d of %d bytes", e.URL, e.Received, e.Expected)
	}
	return fmt.Sprintf("download %s: stream ended with no data", e.URL)
}
