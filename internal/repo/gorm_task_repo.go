package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/query"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// taskRecord is the gorm row. Deadline is stored as an ISO date string so
// that lexical order equals calendar order.
type taskRecord struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Title       string    `gorm:"size:255;not null"`
	Description *string   `gorm:"type:text"`
	Category    string    `gorm:"size:16;not null;index"`
	Priority    string    `gorm:"size:16;not null;index"`
	Deadline    *string   `gorm:"size:10"`
	Completed   bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (taskRecord) TableName() string {
	return "tasks"
}

func toRecord(t dom.Task) taskRecord {
	rec := taskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    string(t.Category),
		Priority:    string(t.Priority),
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Deadline != nil {
		s := t.Deadline.Format(dateLayout)
		rec.Deadline = &s
	}
	return rec
}

func (rec taskRecord) toDomain() (dom.Task, error) {
	t := dom.Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Category:    dom.Category(rec.Category),
		Priority:    dom.Priority(rec.Priority),
		Completed:   rec.Completed,
		CreatedAt:   rec.CreatedAt.UTC(),
		UpdatedAt:   rec.UpdatedAt.UTC(),
	}
	if rec.Deadline != nil {
		d, err := time.Parse(dateLayout, *rec.Deadline)
		if err != nil {
			return dom.Task{}, fmt.Errorf("task %s: bad deadline %q: %w", rec.ID, *rec.Deadline, err)
		}
		t.Deadline = &d
	}
	return t, nil
}

// GormTaskRepo implements TaskRepo with gorm. It backs the sqlite driver.
type GormTaskRepo struct {
	db *gorm.DB
}

// NewGormTaskRepo returns a repo and migrates the tasks table.
func NewGormTaskRepo(db *gorm.DB) (*GormTaskRepo, error) {
	if err := db.AutoMigrate(&taskRecord{}); err != nil {
		return nil, fmt.Errorf("migrate tasks: %w", err)
	}
	return &GormTaskRepo{db: db}, nil
}

func (r *GormTaskRepo) Create(ctx context.Context, t dom.Task) error {
	rec := toRecord(t)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *GormTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	var rec taskRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dom.Task{}, dom.ErrNotFound
	}
	if err != nil {
		return dom.Task{}, fmt.Errorf("select task: %w", err)
	}
	return rec.toDomain()
}

func (r *GormTaskRepo) List(ctx context.Context, q query.ListQuery) ([]dom.Task, int64, error) {
	where := q.Filter.Where()
	scoped := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&taskRecord{})
		if !where.Empty() {
			tx = tx.Where(where.SQL, where.Args...)
		}
		return tx
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	var recs []taskRecord
	err := scoped().Order(query.OrderBy(q.Sort)).Limit(q.Size).Offset(q.Offset()).Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	list := make([]dom.Task, 0, len(recs))
	for _, rec := range recs {
		t, err := rec.toDomain()
		if err != nil {
			return nil, 0, err
		}
		list = append(list, t)
	}
	return list, total, nil
}

func (r *GormTaskRepo) Update(ctx context.Context, t dom.Task) error {
	rec := toRecord(t)
	// Select forces zero values (completed=false, nil description) to be written.
	result := r.db.WithContext(ctx).Model(&taskRecord{}).
		Where("id = ?", t.ID).
		Select("title", "description", "category", "priority", "deadline", "completed", "updated_at").
		Updates(&rec)
	if err := result.Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return dom.ErrNotFound
	}
	return nil
}

func (r *GormTaskRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&taskRecord{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return dom.ErrNotFound
	}
	return nil
}

func (r *GormTaskRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
