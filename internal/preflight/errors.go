package preflight

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why the connectivity check failed.
type ErrorKind int

const (
	// KindConfigMissing means SUPABASE_URL or SUPABASE_SERVICE_KEY is unset.
	KindConfigMissing ErrorKind = iota + 1
	// KindTransport means the request never produced an HTTP response.
	KindTransport
	// KindUnexpectedStatus means the server answered with a status the step does not accept.
	KindUnexpectedStatus
	// KindUnexpected covers any other failure, such as an unbuildable request.
	KindUnexpected
)

var (
	// ErrConfigMissing matches a CheckError of KindConfigMissing.
	ErrConfigMissing = errors.New("supabase configuration missing")
	// ErrTransport matches a CheckError of KindTransport.
	ErrTransport = errors.New("connection error")
	// ErrUnexpectedStatus matches a CheckError of KindUnexpectedStatus.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrUnexpected matches a CheckError of KindUnexpected.
	ErrUnexpected = errors.New("unexpected error")
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfigMissing:
		return "config_missing"
	case KindTransport:
		return "transport"
	case KindUnexpectedStatus:
		return "unexpected_status"
	case KindUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindConfigMissing:
		return ErrConfigMissing
	case KindTransport:
		return ErrTransport
	case KindUnexpectedStatus:
		return ErrUnexpectedStatus
	default:
		return ErrUnexpected
	}
}

// CheckError describes a failed probe step.
type CheckError struct {
	Kind       ErrorKind
	Step       string
	StatusCode int
	Body       string
	Missing    []string
	Err        error
}

func (e *CheckError) Error() string {
	switch e.Kind {
	case KindConfigMissing:
		return fmt.Sprintf("%s: %s", ErrConfigMissing, strings.Join(e.Missing, ", "))
	case KindUnexpectedStatus:
		return fmt.Sprintf("%s %s: %d", e.Step, ErrUnexpectedStatus, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s %s: %v", e.Step, e.Kind.sentinel(), e.Err)
		}
		return fmt.Sprintf("%s %s", e.Step, e.Kind.sentinel())
	}
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for the error's kind.
func (e *CheckError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// MarshalJSON renders the error for the readiness API.
func (e *CheckError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind       string   `json:"kind"`
		Step       string   `json:"step,omitempty"`
		StatusCode int      `json:"statusCode,omitempty"`
		Body       string   `json:"body,omitempty"`
		Missing    []string `json:"missing,omitempty"`
		Message    string   `json:"message"`
	}{
		Kind:       e.Kind.String(),
		Step:       e.Step,
		StatusCode: e.StatusCode,
		Body:       e.Body,
		Missing:    e.Missing,
		Message:    e.Error(),
	})
}
