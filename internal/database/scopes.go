package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/taskflow-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// OwnedBy restricts a query to rows created by ownerID.
func OwnedBy(ownerID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID)
	}
}

// ContainsFold matches term case-insensitively anywhere in any of columns.
func ContainsFold(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		expr, args := ContainsFoldExpr(term, columns...)
		if expr == "" {
			return db
		}
		return db.Where(expr, args...)
	}
}

// ContainsFoldExpr builds the OR-ed LIKE expression used by ContainsFold so
// callers can combine it with extra alternatives. It returns "" for a blank term.
func ContainsFoldExpr(term string, columns ...string) (string, []any) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return "", nil
	}
	pattern := LikePattern(term)

	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = LikeClause(col)
		args[i] = pattern
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

// LikeClause is a case-insensitive LIKE on col expecting a LikePattern argument.
func LikeClause(col string) string {
	return "LOWER(" + col + ") LIKE ? ESCAPE '!'"
}

// LikePattern lowercases term and escapes LIKE wildcards so user input is
// matched literally as a substring.
func LikePattern(term string) string {
	escaped := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(strings.ToLower(strings.TrimSpace(term)))
	return "%" + escaped + "%"
}
