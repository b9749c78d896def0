package preflight

import (
	"github.com/eugenenazirov/supabase-preflight/internal/console"
	"github.com/eugenenazirov/supabase-preflight/internal/settings"
)

var frontendKeys = []string{
	settings.KeyViteSupabaseURL,
	settings.KeyViteSupabaseAnonKey,
	settings.KeyViteAgentEndpoint,
}

// CheckFrontend reports the presence of the variables the frontend build needs.
// It is OK only when all of them are non-empty.
func CheckFrontend(env settings.Environment, out *console.Printer) FrontendResult {
	out.Blank()
	out.Header(console.GlyphSearch, "Testing Frontend Configuration:")

	result := FrontendResult{
		OK:   true,
		Vars: make([]VarStatus, 0, len(frontendKeys)),
	}
	for _, key := range frontendKeys {
		set := env.Get(key) != ""
		out.Indent("%s: %s", key, console.Presence(set))
		result.Vars = append(result.Vars, VarStatus{Name: key, Set: set})
		if !set {
			result.OK = false
		}
	}

	if endpoint := env.Get(settings.KeyViteAgentEndpoint); endpoint != "" {
		result.AgentEndpoint = endpoint
		out.Indent("Agent endpoint will be: %s", endpoint)
	}

	return result
}
