package repository

import "strings"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// likeEscaper escapes LIKE wildcards with '!', which every supported dialect accepts
// as an ESCAPE character inside a plain string literal.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern is a lowercased LIKE pattern matching term anywhere. Use it with likeClause.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// likeClause is "LOWER(column) LIKE ? ESCAPE '!'".
func likeClause(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '!'"
}

// anyLike ORs likeClause over columns, wrapped in parentheses.
func anyLike(columns ...string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = likeClause(c)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
