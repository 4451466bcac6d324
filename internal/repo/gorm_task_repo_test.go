package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/query"
)

// setupTestRepo creates a repo over an in-memory SQLite database.
func setupTestRepo(t *testing.T) *GormTaskRepo {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r, err := NewGormTaskRepo(db)
	require.NoError(t, err)
	return r
}

func date(s string) *time.Time {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return &d
}

func strPtr(s string) *string { return &s }

func newTask(title string, c dom.Category, p dom.Priority, deadline *time.Time) dom.Task {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return dom.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Category:  c,
		Priority:  p,
		Deadline:  deadline,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func listQuery(t *testing.T, f query.Filter, sort string, page, size int) query.ListQuery {
	t.Helper()
	q, err := query.NewListQuery(f, sort, page, size)
	require.NoError(t, err)
	return q
}

func TestGormTaskRepo_CreateAndGet(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	task := newTask("Buy milk", dom.CategoryPersonal, dom.PriorityLow, date("2026-03-01"))
	task.Description = strPtr("2 litres")
	require.NoError(t, r.Create(ctx, task))

	got, err := r.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "2 litres", *got.Description)
	assert.Equal(t, dom.CategoryPersonal, got.Category)
	assert.Equal(t, dom.PriorityLow, got.Priority)
	require.NotNil(t, got.Deadline)
	assert.Equal(t, "2026-03-01", got.Deadline.Format(dateLayout))
	assert.False(t, got.Completed)
	assert.True(t, task.CreatedAt.Equal(got.CreatedAt))

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, dom.ErrNotFound)
}

func TestGormTaskRepo_Update(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	task := newTask("Draft", dom.CategoryWork, dom.PriorityHigh, date("2026-01-10"))
	task.Description = strPtr("old")
	task.Completed = true
	require.NoError(t, r.Create(ctx, task))

	task.Title = "Final"
	task.Description = nil
	task.Deadline = nil
	task.Completed = false
	task.UpdatedAt = task.UpdatedAt.Add(time.Second)
	require.NoError(t, r.Update(ctx, task))

	got, err := r.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Nil(t, got.Description)
	assert.Nil(t, got.Deadline)
	assert.False(t, got.Completed)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	missing := newTask("x", dom.CategoryWork, dom.PriorityLow, nil)
	assert.ErrorIs(t, r.Update(ctx, missing), dom.ErrNotFound)
}

func TestGormTaskRepo_Delete(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	task := newTask("Gone", dom.CategoryLearning, dom.PriorityMedium, nil)
	require.NoError(t, r.Create(ctx, task))

	require.NoError(t, r.Delete(ctx, task.ID))
	_, err := r.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, dom.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, task.ID), dom.ErrNotFound)
}

func TestGormTaskRepo_ListDefaultOrder(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	low := newTask("low", dom.CategoryWork, dom.PriorityLow, date("2026-01-01"))
	highLate := newTask("high late", dom.CategoryWork, dom.PriorityHigh, date("2026-05-01"))
	highNone := newTask("high none", dom.CategoryWork, dom.PriorityHigh, nil)
	highEarly := newTask("high early", dom.CategoryWork, dom.PriorityHigh, date("2026-02-01"))
	medium := newTask("medium", dom.CategoryWork, dom.PriorityMedium, nil)
	for _, task := range []dom.Task{low, highLate, highNone, highEarly, medium} {
		require.NoError(t, r.Create(ctx, task))
	}

	list, total, err := r.List(ctx, listQuery(t, query.Filter{}, "", 0, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	titles := make([]string, len(list))
	for i, task := range list {
		titles[i] = task.Title
	}
	assert.Equal(t, []string{"high early", "high late", "high none", "medium", "low"}, titles)
}

func TestGormTaskRepo_ListPaging(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		require.NoError(t, r.Create(ctx, newTask(fmt.Sprintf("t%d", i), dom.CategoryWork, dom.PriorityMedium, nil)))
	}

	page0, total, err := r.List(ctx, listQuery(t, query.Filter{}, "title", 0, 3))
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, page0, 3)
	assert.Equal(t, "t0", page0[0].Title)

	page2, _, err := r.List(ctx, listQuery(t, query.Filter{}, "title", 2, 3))
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "t6", page2[0].Title)
}

func TestGormTaskRepo_ListFilters(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	a := newTask("Buy FOOD", dom.CategoryPersonal, dom.PriorityLow, nil)
	b := newTask("Report", dom.CategoryWork, dom.PriorityHigh, nil)
	b.Description = strPtr("quarterly food budget")
	c := newTask("Read book", dom.CategoryLearning, dom.PriorityLow, nil)
	c.Completed = true
	d := newTask("100% done", dom.CategoryWork, dom.PriorityLow, nil)
	e := newTask("ÄPFEL kaufen", dom.CategoryPersonal, dom.PriorityMedium, nil)
	for _, task := range []dom.Task{a, b, c, d, e} {
		require.NoError(t, r.Create(ctx, task))
	}

	cases := []struct {
		name      string
		search    string
		category  string
		priority  string
		completed *bool
		want      []string
	}{
		{name: "search title or description", search: "food", want: []string{"Report", "Buy FOOD"}},
		{name: "category", category: "work", want: []string{"Report", "100% done"}},
		{name: "priority and category", category: "WORK", priority: "LOW", want: []string{"100% done"}},
		{name: "completed", completed: boolPtr(true), want: []string{"Read book"}},
		{name: "literal percent", search: "%", want: []string{"100% done"}},
		{name: "no match", search: "zzz", want: []string{}},
		{name: "non-ascii case folding", search: "äpfel", want: []string{"ÄPFEL kaufen"}},
		{name: "non-ascii upper search", search: "ÄPFEL", want: []string{"ÄPFEL kaufen"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := query.NewFilter(tc.search, tc.category, tc.priority, tc.completed)
			require.NoError(t, err)
			list, total, err := r.List(ctx, listQuery(t, f, "", 0, 20))
			require.NoError(t, err)
			assert.EqualValues(t, len(tc.want), total)
			got := make([]string, 0, len(list))
			for _, task := range list {
				got = append(got, task.Title)
			}
			assert.ElementsMatch(t, tc.want, got)
		})
	}
}

func boolPtr(b bool) *bool { return &b }
