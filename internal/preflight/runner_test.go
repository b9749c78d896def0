package preflight

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/supabase-preflight/internal/console"
	"github.com/eugenenazirov/supabase-preflight/internal/settings"
)

func fullEnv(baseURL string) settings.Environment {
	return settings.NewEnvironment(map[string]string{
		settings.KeySupabaseURL:         baseURL,
		settings.KeySupabaseServiceKey:  "service-role-key-abcd",
		settings.KeyViteSupabaseURL:     baseURL,
		settings.KeyViteSupabaseAnonKey: "anon-key",
		settings.KeyViteAgentEndpoint:   "http://localhost:8001/api/pydantic-agent",
	})
}

func TestRunnerFullSuccess(t *testing.T) {
	t.Parallel()

	srv, _ := newFakeSupabase(t, http.StatusOK, http.StatusConflict, http.StatusOK)
	checkedAt := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	runner := NewRunner(fullEnv(srv.URL),
		NewProber(WithLogger(zaptest.NewLogger(t))),
		WithSettingsFile("/srv/app/.env", true),
		WithClock(func() time.Time { return checkedAt }),
	)

	var buf bytes.Buffer
	report := runner.Run(context.Background(), console.New(&buf))

	if !report.Ready || !report.Connectivity.OK || !report.Frontend.OK {
		t.Fatalf("expected full success, got %+v", report)
	}
	if !report.CheckedAt.Equal(checkedAt) {
		t.Fatalf("unexpected CheckedAt %s", report.CheckedAt)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "🧪 Testing Database Connection\n"+strings.Repeat("=", 40)+"\n✅ Loaded .env file\n") {
		t.Fatalf("unexpected preamble:\n%s", out)
	}

	wantTail := "\n" + strings.Repeat("=", 40) + "\n" +
		"🎉 All tests passed! Ready to deploy.\n" +
		"\n" +
		"Next steps:\n" +
		"1. Run: python deploy.py --type local --project localai\n" +
		"2. Access frontend at: http://localhost:8082\n" +
		"3. Access agent API at: http://localhost:8001\n"
	if !strings.HasSuffix(out, wantTail) {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestRunnerFailureHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		env       settings.Environment
		wantHints []string
		noHints   []string
	}{
		{
			name:      "NothingConfigured",
			env:       settings.NewEnvironment(nil),
			wantHints: []string{"   - Verify your Supabase credentials", "   - Ensure the database schema has been created", "   - Check your frontend environment variables"},
		},
		{
			name: "FrontendOnly",
			env: settings.NewEnvironment(map[string]string{
				settings.KeyViteSupabaseURL:     "https://x.supabase.co",
				settings.KeyViteSupabaseAnonKey: "anon",
				settings.KeyViteAgentEndpoint:   "http://localhost:8001",
			}),
			wantHints: []string{"   - Verify your Supabase credentials"},
			noHints:   []string{"   - Check your frontend environment variables"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			report := NewRunner(tc.env, nil).Run(context.Background(), console.New(&buf))

			if report.Ready {
				t.Fatalf("expected report not to be ready")
			}
			out := buf.String()
			if !strings.Contains(out, "❌ Some tests failed. Please check your configuration.") {
				t.Fatalf("expected failure banner:\n%s", out)
			}
			if !strings.Contains(out, "⚠️  No .env file found, using system environment variables") {
				t.Fatalf("expected missing settings file notice:\n%s", out)
			}
			for _, hint := range tc.wantHints {
				if !strings.Contains(out, hint) {
					t.Fatalf("expected hint %q:\n%s", hint, out)
				}
			}
			for _, hint := range tc.noHints {
				if strings.Contains(out, hint) {
					t.Fatalf("unexpected hint %q:\n%s", hint, out)
				}
			}
		})
	}
}

func TestRunnerDatabaseOnlyFailureKeepsFrontendResult(t *testing.T) {
	t.Parallel()

	srv, _ := newFakeSupabase(t, http.StatusOK, http.StatusCreated, http.StatusNoContent)
	env := settings.NewEnvironment(map[string]string{
		settings.KeySupabaseURL:        srv.URL,
		settings.KeySupabaseServiceKey: "key",
	})

	var buf bytes.Buffer
	report := NewRunner(env, nil).Run(context.Background(), console.New(&buf))

	if !report.Connectivity.OK || report.Frontend.OK || report.Ready {
		t.Fatalf("unexpected report %+v", report)
	}
	if strings.Contains(buf.String(), "Verify your Supabase credentials") {
		t.Fatalf("database hint must not be printed when connectivity passed:\n%s", buf.String())
	}
}

func TestWithNextStepsOverridesDefaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(console.New(&buf), Report{Ready: true}, []string{"make deploy"})
	if !strings.Contains(buf.String(), "1. make deploy\n") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}

	r := NewRunner(settings.NewEnvironment(nil), nil, WithNextSteps(nil))
	if len(r.nextSteps) != 3 {
		t.Fatalf("empty override must keep defaults, got %v", r.nextSteps)
	}
}
