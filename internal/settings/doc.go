// Package settings loads the optional .env settings file and merges it with the
// process environment into an immutable Environment value that the checks read
// from. The real process environment always takes precedence over the file.
package settings
