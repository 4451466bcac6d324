// Package query turns optional list parameters into SQL fragments shared by
// every store driver.
package query

import (
	"strings"

	dom "taskmanager/internal/domain"
)

// Filter holds resolved list constraints. Nil/empty fields impose nothing.
type Filter struct {
	Search    string
	Category  *dom.Category
	Priority  *dom.Priority
	Completed *bool
}

// NewFilter resolves raw inputs. Empty category/priority strings mean
// "no constraint"; unknown values fail with dom.ErrInvalidArgument.
func NewFilter(search, category, priority string, completed *bool) (Filter, error) {
	f := Filter{Search: strings.TrimSpace(search), Completed: completed}
	if strings.TrimSpace(category) != "" {
		c, err := dom.ParseCategory(category)
		if err != nil {
			return Filter{}, err
		}
		f.Category = &c
	}
	if strings.TrimSpace(priority) != "" {
		p, err := dom.ParsePriority(priority)
		if err != nil {
			return Filter{}, err
		}
		f.Priority = &p
	}
	return f, nil
}

// Predicate is a WHERE fragment with "?" placeholders.
type Predicate struct {
	SQL  string
	Args []any
}

// Predicates returns one fragment per supplied constraint.
func (f Filter) Predicates() []Predicate {
	var preds []Predicate
	if f.Search != "" {
		like := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		preds = append(preds, Predicate{
			SQL:  `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`,
			Args: []any{like, like},
		})
	}
	if f.Category != nil {
		preds = append(preds, Predicate{SQL: "category = ?", Args: []any{string(*f.Category)}})
	}
	if f.Priority != nil {
		preds = append(preds, Predicate{SQL: "priority = ?", Args: []any{string(*f.Priority)}})
	}
	if f.Completed != nil {
		preds = append(preds, Predicate{SQL: "completed = ?", Args: []any{*f.Completed}})
	}
	return preds
}

// Where combines the filter's fragments with AND. An empty filter yields an
// empty predicate, which callers treat as "match all".
func (f Filter) Where() Predicate {
	return And(f.Predicates()...)
}

// And joins predicates with AND.
func And(preds ...Predicate) Predicate {
	if len(preds) == 0 {
		return Predicate{}
	}
	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		parts = append(parts, p.SQL)
		args = append(args, p.Args...)
	}
	return Predicate{SQL: strings.Join(parts, " AND "), Args: args}
}

// Empty reports whether p constrains nothing.
func (p Predicate) Empty() bool { return p.SQL == "" }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
