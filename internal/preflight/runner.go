package preflight

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/eugenenazirov/supabase-preflight/internal/console"
	"github.com/eugenenazirov/supabase-preflight/internal/settings"
)

// Runner executes a full check run against a fixed Environment.
type Runner struct {
	env           settings.Environment
	prober        *Prober
	settingsFile  string
	settingsFound bool
	nextSteps     []string
	clock         func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSettingsFile records which settings file was looked up and whether it existed.
func WithSettingsFile(path string, found bool) RunnerOption {
	return func(r *Runner) {
		r.settingsFile = path
		r.settingsFound = found
	}
}

// WithNextSteps replaces the instructions printed after a successful run.
func WithNextSteps(steps []string) RunnerOption {
	return func(r *Runner) {
		if len(steps) > 0 {
			r.nextSteps = slices.Clone(steps)
		}
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) RunnerOption {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRunner returns a Runner probing with prober (or a default one when nil).
func NewRunner(env settings.Environment, prober *Prober, opts ...RunnerOption) *Runner {
	if prober == nil {
		prober = NewProber()
	}
	r := &Runner{
		env:       env,
		prober:    prober,
		nextSteps: DefaultNextSteps(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs both checks, prints the report to out and returns it.
func (r *Runner) Run(ctx context.Context, out *console.Printer) Report {
	out.Header(console.GlyphTesting, "Testing Database Connection")
	out.Rule()

	name := filepath.Base(r.settingsFile)
	if r.settingsFile == "" {
		name = settings.DefaultFileName
	}
	if r.settingsFound {
		out.OK("Loaded %s file", name)
	} else {
		out.Warn("No %s file found, using system environment variables", name)
	}

	report := Report{
		SettingsFile:      r.settingsFile,
		SettingsFileFound: r.settingsFound,
	}
	report.Connectivity = r.prober.Probe(ctx, r.env, out)
	report.Frontend = CheckFrontend(r.env, out)
	report.Ready = report.Connectivity.OK && report.Frontend.OK
	report.CheckedAt = r.clock()

	PrintSummary(out, report, r.nextSteps)
	return report
}

// PrintSummary prints the closing banner with next steps or remediation hints.
func PrintSummary(out *console.Printer, report Report, nextSteps []string) {
	out.Blank()
	out.Rule()

	if report.Ready {
		out.Header(console.GlyphParty, "All tests passed! Ready to deploy.")
		out.Blank()
		out.Line("Next steps:")
		for i, step := range nextSteps {
			out.Line("%d. %s", i+1, step)
		}
		return
	}

	out.Fail("Some tests failed. Please check your configuration.")
	if !report.Connectivity.OK {
		out.Indent("- Verify your Supabase credentials")
		out.Indent("- Ensure the database schema has been created")
	}
	if !report.Frontend.OK {
		out.Indent("- Check your frontend environment variables")
	}
}
