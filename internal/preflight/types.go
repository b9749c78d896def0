package preflight

import (
	"slices"
	"time"
)

// DefaultTable is the collection probed for read and write access.
const DefaultTable = "user_profiles"

// Record is the sentinel row written and removed by the write probe.
type Record struct {
	ID       string `json:"id" yaml:"id"`
	Email    string `json:"email" yaml:"email"`
	FullName string `json:"full_name" yaml:"full_name"`
}

// DefaultSentinel returns the well-known test row.
func DefaultSentinel() Record {
	return Record{
		ID:       "00000000-0000-0000-0000-000000000000",
		Email:    "test@example.com",
		FullName: "Test User",
	}
}

// DefaultNextSteps are printed after a fully successful run.
func DefaultNextSteps() []string {
	return []string{
		"Run: python deploy.py --type local --project localai",
		"Access frontend at: http://localhost:8082",
		"Access agent API at: http://localhost:8001",
	}
}

// WriteOutcome is the advisory result of the write probe.
type WriteOutcome string

const (
	WriteSkipped   WriteOutcome = "skipped"
	WriteConfirmed WriteOutcome = "confirmed"
	WriteFailed    WriteOutcome = "failed"
)

// ConnectivityResult is the outcome of the database probe. OK depends on the read step only.
type ConnectivityResult struct {
	OK               bool         `json:"ok"`
	ReadStatus       int          `json:"readStatus,omitempty"`
	Write            WriteOutcome `json:"write"`
	WriteStatus      int          `json:"writeStatus,omitempty"`
	CleanupAttempted bool         `json:"cleanupAttempted"`
	Err              *CheckError  `json:"error,omitempty"`
}

// VarStatus reports whether one environment variable is set.
type VarStatus struct {
	Name string `json:"name"`
	Set  bool   `json:"set"`
}

// FrontendResult is the outcome of the frontend environment check.
type FrontendResult struct {
	OK            bool        `json:"ok"`
	Vars          []VarStatus `json:"vars"`
	AgentEndpoint string      `json:"agentEndpoint,omitempty"`
}

// Report aggregates a full run.
type Report struct {
	SettingsFile      string             `json:"settingsFile,omitempty"`
	SettingsFileFound bool               `json:"settingsFileFound"`
	Connectivity      ConnectivityResult `json:"connectivity"`
	Frontend          FrontendResult     `json:"frontend"`
	Ready             bool               `json:"ready"`
	CheckedAt         time.Time          `json:"checkedAt"`
}

// Clone returns a deep copy of the report.
func (r Report) Clone() Report {
	out := r
	out.Frontend.Vars = slices.Clone(r.Frontend.Vars)
	if r.Connectivity.Err != nil {
		errCopy := *r.Connectivity.Err
		errCopy.Missing = slices.Clone(r.Connectivity.Err.Missing)
		out.Connectivity.Err = &errCopy
	}
	return out
}
