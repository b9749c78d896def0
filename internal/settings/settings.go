package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultFileName is the settings file looked up when no explicit path is given.
const DefaultFileName = ".env"

// Keys consumed by the checks.
const (
	KeySupabaseURL         = "SUPABASE_URL"
	KeySupabaseServiceKey  = "SUPABASE_SERVICE_KEY"
	KeyViteSupabaseURL     = "VITE_SUPABASE_URL"
	KeyViteSupabaseAnonKey = "VITE_SUPABASE_ANON_KEY"
	KeyViteAgentEndpoint   = "VITE_AGENT_ENDPOINT"
)

// Environment is an immutable snapshot of key/value settings.
type Environment struct {
	values map[string]string
}

// NewEnvironment copies values into a new Environment.
func NewEnvironment(values map[string]string) Environment {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return Environment{values: out}
}

// FromEnviron builds an Environment from KEY=VALUE pairs as returned by os.Environ.
func FromEnviron(environ []string) Environment {
	values := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		values[key] = value
	}
	return Environment{values: values}
}

// Get returns the value for key, or "" when unset.
func (e Environment) Get(key string) string {
	return e.values[key]
}

// Lookup returns the value for key and whether it was present at all.
func (e Environment) Lookup(key string) (string, bool) {
	v, ok := e.values[key]
	return v, ok
}

// With returns a copy of the environment with key set to value.
func (e Environment) With(key, value string) Environment {
	next := NewEnvironment(e.values)
	next.values[key] = value
	return next
}

// Keys returns the sorted key set.
func (e Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load merges the settings file at path into environ. Values already present in
// environ are never overwritten. A missing file is not an error; found reports
// whether the file was read.
func Load(path string, environ []string) (env Environment, found bool, err error) {
	base := FromEnviron(environ)
	if path == "" {
		return base, false, nil
	}

	fileValues, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, false, nil
		}
		return base, false, fmt.Errorf("read settings file %s: %w", path, err)
	}

	merged := make(map[string]string, len(fileValues)+len(base.values))
	for k, v := range fileValues {
		merged[k] = v
	}
	for k, v := range base.values {
		merged[k] = v
	}
	return Environment{values: merged}, true, nil
}

// Discover walks up from dir looking for name and returns the first match.
// When nothing is found the path inside dir is returned so callers can still
// report which file was expected.
func Discover(dir, name string) string {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return name
		}
		dir = wd
	}

	start := dir
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Join(start, name)
}
