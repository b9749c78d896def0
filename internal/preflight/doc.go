// Package preflight implements the deployment readiness checks: a
// connectivity probe against the Supabase REST API (read, advisory write and
// cleanup of a sentinel record), a presence check of the frontend environment
// variables, and the summary that combines both into a Report.
//
// Checks never return errors to the caller. Every failure is folded into the
// result values and described on the console Printer.
package preflight
