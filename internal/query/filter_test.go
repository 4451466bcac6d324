package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dom "taskmanager/internal/domain"
)

func TestNewFilter_Empty(t *testing.T) {
	f, err := NewFilter("   ", "", "", nil)
	require.NoError(t, err)
	assert.Empty(t, f.Predicates())
	assert.True(t, f.Where().Empty())
}

func TestNewFilter_AllSupplied(t *testing.T) {
	done := true
	f, err := NewFilter("Milk", "personal", "LOW", &done)
	require.NoError(t, err)

	preds := f.Predicates()
	require.Len(t, preds, 4)
	assert.Equal(t, []any{"%milk%", "%milk%"}, preds[0].Args)
	assert.Equal(t, "category = ?", preds[1].SQL)
	assert.Equal(t, []any{"PERSONAL"}, preds[1].Args)
	assert.Equal(t, []any{"LOW"}, preds[2].Args)
	assert.Equal(t, []any{true}, preds[3].Args)

	where := f.Where()
	assert.Contains(t, where.SQL, " AND category = ? AND priority = ? AND completed = ?")
	assert.Len(t, where.Args, 5)
}

func TestNewFilter_UnknownEnum(t *testing.T) {
	_, err := NewFilter("", "HOBBY", "", nil)
	assert.ErrorIs(t, err, dom.ErrInvalidArgument)

	_, err = NewFilter("", "", "CRITICAL", nil)
	assert.ErrorIs(t, err, dom.ErrInvalidArgument)
}

func TestSearchEscapesWildcards(t *testing.T) {
	f, err := NewFilter(`50%_off\`, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, `%50\%\_off\\%`, f.Predicates()[0].Args[0])
}

func TestAnd(t *testing.T) {
	p := And(Predicate{SQL: "a = ?", Args: []any{1}}, Predicate{SQL: "b = ?", Args: []any{2}})
	assert.Equal(t, "a = ? AND b = ?", p.SQL)
	assert.Equal(t, []any{1, 2}, p.Args)
	assert.True(t, And().Empty())
}
