package preflight

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/supabase-preflight/internal/console"
	"github.com/eugenenazirov/supabase-preflight/internal/settings"
	"github.com/eugenenazirov/supabase-preflight/internal/supabase"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// RESTClient is the subset of the Supabase client used by the probe.
type RESTClient interface {
	Count(ctx context.Context, table string) (*supabase.Response, error)
	Insert(ctx context.Context, table string, record any) (*supabase.Response, error)
	DeleteByID(ctx context.Context, table, id string) (*supabase.Response, error)
}

// ClientFactory builds a RESTClient for a base URL and service key.
type ClientFactory func(baseURL, key string) RESTClient

// Prober checks that the Supabase project is reachable and writable.
type Prober struct {
	newClient   ClientFactory
	table       string
	sentinel    Record
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithClientFactory overrides how REST clients are built, primarily for tests.
func WithClientFactory(f ClientFactory) ProberOption {
	return func(p *Prober) {
		if f != nil {
			p.newClient = f
		}
	}
}

// WithTable sets the probed collection.
func WithTable(table string) ProberOption {
	return func(p *Prober) {
		if table != "" {
			p.table = table
		}
	}
}

// WithSentinel sets the record used by the write probe.
func WithSentinel(r Record) ProberOption {
	return func(p *Prober) {
		if r.ID != "" {
			p.sentinel = r
		}
	}
}

// WithReadTimeout bounds the read request.
func WithReadTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		if d > 0 {
			p.readTimeout = d
		}
	}
}

// WithWriteTimeout bounds the insert and the cleanup delete, each on its own.
func WithWriteTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) ProberOption {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProber returns a Prober with defaults for everything not overridden.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		newClient: func(baseURL, key string) RESTClient {
			return supabase.New(baseURL, key)
		},
		table:       DefaultTable,
		sentinel:    DefaultSentinel(),
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe runs the read, write and cleanup steps. Success is decided by the read
// step alone: the write probe only produces a warning when it fails.
func (p *Prober) Probe(ctx context.Context, env settings.Environment, out *console.Printer) ConnectivityResult {
	baseURL := env.Get(settings.KeySupabaseURL)
	key := env.Get(settings.KeySupabaseServiceKey)

	if baseURL == "" || key == "" {
		out.Fail("Missing Supabase configuration:")
		out.Indent("%s: %s", settings.KeySupabaseURL, console.Presence(baseURL != ""))
		out.Indent("%s: %s", settings.KeySupabaseServiceKey, console.Presence(key != ""))

		var missing []string
		if baseURL == "" {
			missing = append(missing, settings.KeySupabaseURL)
		}
		if key == "" {
			missing = append(missing, settings.KeySupabaseServiceKey)
		}
		return ConnectivityResult{
			Write: WriteSkipped,
			Err:   &CheckError{Kind: KindConfigMissing, Missing: missing},
		}
	}

	out.OK("Supabase URL: %s", baseURL)
	out.OK("Service Key: %s", MaskKey(key))

	client := p.newClient(baseURL, key)

	readCtx, cancel := context.WithTimeout(ctx, p.readTimeout)
	resp, err := client.Count(readCtx, p.table)
	cancel()
	if err != nil {
		return ConnectivityResult{Write: WriteSkipped, Err: p.requestFailure(out, "read", err)}
	}

	if resp.StatusCode != http.StatusOK {
		out.Fail("Database connection failed: %d", resp.StatusCode)
		out.Indent("Response: %s", resp.Body)
		return ConnectivityResult{
			ReadStatus: resp.StatusCode,
			Write:      WriteSkipped,
			Err: &CheckError{
				Kind:       KindUnexpectedStatus,
				Step:       "read",
				StatusCode: resp.StatusCode,
				Body:       resp.Body,
			},
		}
	}

	out.OK("Database connection successful!")
	out.OK("%s table exists and is accessible", p.table)

	result := ConnectivityResult{OK: true, ReadStatus: resp.StatusCode}
	p.probeWrite(ctx, client, out, &result)
	return result
}

func (p *Prober) probeWrite(ctx context.Context, client RESTClient, out *console.Printer, result *ConnectivityResult) {
	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	resp, err := client.Insert(writeCtx, p.table, p.sentinel)
	cancel()
	switch {
	case err != nil:
		result.Write = WriteFailed
		out.Warn("Write test failed: %v", err)
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusConflict:
		result.Write = WriteConfirmed
		result.WriteStatus = resp.StatusCode
		out.OK("Write permissions working")
	default:
		result.Write = WriteFailed
		result.WriteStatus = resp.StatusCode
		out.Warn("Write test failed: %d", resp.StatusCode)
		out.Indent("Response: %s", resp.Body)
	}

	// The cleanup outcome is not part of the result; anomalies only reach the log.
	// It outlives the caller's cancellation so an inserted sentinel is still removed.
	result.CleanupAttempted = true
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.writeTimeout)
	defer cancel()
	delResp, err := client.DeleteByID(cleanupCtx, p.table, p.sentinel.ID)
	switch {
	case err != nil:
		p.logger.Warn("sentinel cleanup failed",
			zap.String("table", p.table),
			zap.String("id", p.sentinel.ID),
			zap.Error(err),
		)
	case delResp.StatusCode >= http.StatusMultipleChoices:
		p.logger.Warn("sentinel cleanup returned unexpected status",
			zap.String("table", p.table),
			zap.String("id", p.sentinel.ID),
			zap.Int("status", delResp.StatusCode),
			zap.String("body", delResp.Body),
		)
	}
	out.OK("Cleanup successful")
}

func (p *Prober) requestFailure(out *console.Printer, step string, err error) *CheckError {
	var te *supabase.TransportError
	if errors.As(err, &te) {
		out.Fail("Connection error: %v", err)
		return &CheckError{Kind: KindTransport, Step: step, Err: err}
	}
	out.Fail("Unexpected error: %v", err)
	return &CheckError{Kind: KindUnexpected, Step: step, Err: err}
}

// MaskKey hides all but the last four characters of a secret.
func MaskKey(key string) string {
	tail := []rune(key)
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return strings.Repeat("*", 10) + string(tail)
}
