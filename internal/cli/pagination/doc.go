// Package pagination provides sort-expression parsing and listing sorting
// for CLI commands that print result tables.
package pagination
