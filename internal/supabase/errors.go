package supabase

// TransportError reports a request that never produced an HTTP response
// (DNS, dial, TLS, timeout) or whose body could not be read.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
