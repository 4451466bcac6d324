package query

import (
	"fmt"
	"strings"

	dom "taskmanager/internal/domain"
)

// DefaultSort is applied when the caller supplies no sort fields.
const DefaultSort = "priority,deadline"

// SortField is a wire-level field name accepted by ParseSort.
type SortField string

const (
	SortID          SortField = "id"
	SortTitle       SortField = "title"
	SortDescription SortField = "description"
	SortCategory    SortField = "category"
	SortPriority    SortField = "priority"
	SortDeadline    SortField = "deadline"
	SortCompleted   SortField = "completed"
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
)

var sortColumns = map[SortField]string{
	SortID:          "id",
	SortTitle:       "title",
	SortDescription: "description",
	SortCategory:    "category",
	SortPriority:    "priority",
	SortDeadline:    "deadline",
	SortCompleted:   "completed",
	SortCreatedAt:   "created_at",
	SortUpdatedAt:   "updated_at",
}

// ParseSort splits a comma separated field list. Blank input falls back to
// DefaultSort. Every field sorts ascending.
func ParseSort(raw string) ([]SortField, error) {
	if strings.TrimSpace(raw) == "" {
		raw = DefaultSort
	}
	var fields []SortField
	seen := make(map[SortField]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		f, ok := lookupField(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown sort field %q", dom.ErrInvalidArgument, name)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return ParseSort(DefaultSort)
	}
	return fields, nil
}

func lookupField(name string) (SortField, bool) {
	for f := range sortColumns {
		if strings.EqualFold(string(f), name) {
			return f, true
		}
	}
	return "", false
}

// OrderBy renders ORDER BY terms (without the keyword). Enum columns order by
// declaration position, deadline puts nulls last, and id always breaks ties.
func OrderBy(fields []SortField) string {
	terms := make([]string, 0, len(fields)+1)
	hasID := false
	for _, f := range fields {
		switch f {
		case SortCategory:
			terms = append(terms, ordinalCase("category", dom.Categories))
		case SortPriority:
			terms = append(terms, ordinalCase("priority", dom.Priorities))
		case SortDeadline:
			terms = append(terms, "CASE WHEN deadline IS NULL THEN 1 ELSE 0 END ASC", "deadline ASC")
		default:
			if f == SortID {
				hasID = true
			}
			terms = append(terms, sortColumns[f]+" ASC")
		}
	}
	if !hasID {
		terms = append(terms, "id ASC")
	}
	return strings.Join(terms, ", ")
}

func ordinalCase[T ~string](column string, values []T) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for i, v := range values {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", string(v), i)
	}
	fmt.Fprintf(&b, " ELSE %d END ASC", len(values))
	return b.String()
}
