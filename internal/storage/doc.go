// Package storage caches the latest check report for the readiness server.
package storage
