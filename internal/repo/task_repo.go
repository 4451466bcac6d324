package repo

import (
	"context"
	"errors"
	"fmt"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/query"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepo is the persistence port. Missing rows surface as dom.ErrNotFound.
type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) error
	GetByID(ctx context.Context, id string) (dom.Task, error)
	List(ctx context.Context, q query.ListQuery) ([]dom.Task, int64, error)
	Update(ctx context.Context, t dom.Task) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

const taskColumns = `id, title, description, category, priority, deadline, completed, created_at, updated_at`

// PGTaskRepo implements TaskRepo with Postgres.
type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) error {
	stmt := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, stmt,
		t.ID, t.Title, t.Description, string(t.Category), string(t.Priority),
		t.Deadline, t.Completed, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Task{}, dom.ErrNotFound
	}
	if err != nil {
		return dom.Task{}, fmt.Errorf("select task: %w", err)
	}
	return t, nil
}

func (r *PGTaskRepo) List(ctx context.Context, q query.ListQuery) ([]dom.Task, int64, error) {
	countStmt, countArgs, stmt, args := pgListStatements(q)

	var total int64
	if err := r.db.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	list := make([]dom.Task, 0, q.Size)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	return list, total, rows.Err()
}

// pgListStatements renders the count and page queries with $n placeholders.
func pgListStatements(q query.ListQuery) (countStmt string, countArgs []any, stmt string, args []any) {
	where := q.Filter.Where()
	clause := ""
	if !where.Empty() {
		clause = " WHERE " + where.SQL
	}
	countStmt = query.Rebind(`SELECT COUNT(*) FROM tasks` + clause)

	args = append([]any{}, where.Args...)
	args = append(args, q.Size, q.Offset())
	stmt = query.Rebind(`SELECT ` + taskColumns + ` FROM tasks` + clause +
		` ORDER BY ` + query.OrderBy(q.Sort) + ` LIMIT ? OFFSET ?`)
	return countStmt, where.Args, stmt, args
}

func (r *PGTaskRepo) Update(ctx context.Context, t dom.Task) error {
	stmt := `
		UPDATE tasks SET title = $2, description = $3, category = $4, priority = $5,
			deadline = $6, completed = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, stmt,
		t.ID, t.Title, t.Description, string(t.Category), string(t.Priority),
		t.Deadline, t.Completed, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrNotFound
	}
	return nil
}

func (r *PGTaskRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrNotFound
	}
	return nil
}

func (r *PGTaskRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanTask(row pgx.Row) (dom.Task, error) {
	var (
		t        dom.Task
		category string
		priority string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &category, &priority,
		&t.Deadline, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return dom.Task{}, err
	}
	t.Category = dom.Category(category)
	t.Priority = dom.Priority(priority)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}
