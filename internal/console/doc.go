// Package console prints the glyph-prefixed check report.
package console
