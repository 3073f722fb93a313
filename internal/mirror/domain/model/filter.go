package model

import "strings"

// CollectionFilter carries per-call request constraints. A zero value means
// "no constraint" for every field. LastModified is the incremental watermark;
// pinning PerPage opts the caller out of auto-pagination.
type CollectionFilter struct {
	Filter       string
	Page         int
	PerPage      int
	Sort         string
	LastModified string
}

// CombineFilters joins non-empty filter clauses with a logical AND, each
// clause independently parenthesized. Clauses are pre-validated strings in
// the remote filter language; composition here is purely syntactic.
func CombineFilters(clauses ...string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		parts = append(parts, "("+c+")")
	}
	return strings.Join(parts, " && ")
}
