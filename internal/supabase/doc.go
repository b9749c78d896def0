// Package supabase is a minimal client for the Supabase REST (PostgREST) API.
package supabase
