package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskmanager/internal/cache"
	dom "taskmanager/internal/domain"
	"taskmanager/internal/dto"
	"taskmanager/internal/query"
	"taskmanager/internal/repo"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ListParams carries the raw list inputs. Empty strings and nil mean "not
// supplied".
type ListParams struct {
	Search    string
	Category  string
	Priority  string
	Completed *bool
	Page      int
	Size      int
	Sort      string
}

type TaskService struct {
	repo   repo.TaskRepo
	cache  *cache.TaskCache
	sf     singleflight.Group
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *TaskService) { s.newID = gen }
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *TaskService) { s.logger = l }
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache, opts ...Option) *TaskService {
	s := &TaskService{
		repo:   r,
		cache:  c,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) Create(ctx context.Context, req dto.TaskRequest) (dto.TaskResponse, error) {
	if err := validate(req); err != nil {
		return dto.TaskResponse{}, err
	}
	now := s.timestamp()
	t := dom.Task{
		ID:        s.newID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&t, req)
	t.Completed = req.Completed != nil && *req.Completed

	if err := s.repo.Create(ctx, t); err != nil {
		return dto.TaskResponse{}, err
	}
	s.invalidateCache(ctx)
	return toResponse(t), nil
}

func (s *TaskService) Get(ctx context.Context, id string) (dto.TaskResponse, error) {
	if s.cache == nil {
		return s.load(ctx, id)
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("cache generation", "error", err)
		return s.load(ctx, id)
	}
	v, err, _ := s.sf.Do(fmt.Sprintf("get:%d:%s", gen, id), func() (interface{}, error) {
		// the flight outlives any single caller
		ctx := context.WithoutCancel(ctx)
		if resp, ok, err := s.cache.GetTask(ctx, gen, id); err == nil && ok {
			return resp, nil
		}
		resp, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetTask(ctx, gen, resp); err != nil {
			s.logger.Warn("cache set task", "id", id, "error", err)
		}
		return resp, nil
	})
	if err != nil {
		return dto.TaskResponse{}, err
	}
	return v.(dto.TaskResponse), nil
}

func (s *TaskService) load(ctx context.Context, id string) (dto.TaskResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	return toResponse(t), nil
}

func (s *TaskService) List(ctx context.Context, p ListParams) (dto.Page[dto.TaskResponse], error) {
	f, err := query.NewFilter(p.Search, p.Category, p.Priority, p.Completed)
	if err != nil {
		return dto.Page[dto.TaskResponse]{}, err
	}
	q, err := query.NewListQuery(f, p.Sort, p.Page, p.Size)
	if err != nil {
		return dto.Page[dto.TaskResponse]{}, err
	}
	if s.cache == nil {
		return s.page(ctx, q)
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("cache generation", "error", err)
		return s.page(ctx, q)
	}
	key := q.Key()
	v, err, _ := s.sf.Do(fmt.Sprintf("list:%d:%s", gen, key), func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		if page, ok, err := s.cache.GetPage(ctx, gen, key); err == nil && ok {
			return page, nil
		}
		page, err := s.page(ctx, q)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetPage(ctx, gen, key, page); err != nil {
			s.logger.Warn("cache set page", "key", key, "error", err)
		}
		return page, nil
	})
	if err != nil {
		return dto.Page[dto.TaskResponse]{}, err
	}
	return v.(dto.Page[dto.TaskResponse]), nil
}

func (s *TaskService) page(ctx context.Context, q query.ListQuery) (dto.Page[dto.TaskResponse], error) {
	list, total, err := s.repo.List(ctx, q)
	if err != nil {
		return dto.Page[dto.TaskResponse]{}, err
	}
	content := make([]dto.TaskResponse, len(list))
	for i := range list {
		content[i] = toResponse(list[i])
	}
	return dto.NewPage(content, q.Page, q.Size, total), nil
}

// Update overwrites every mutable field from req. Completed is the exception:
// a nil value keeps the stored flag.
func (s *TaskService) Update(ctx context.Context, id string, req dto.TaskRequest) (dto.TaskResponse, error) {
	if err := validate(req); err != nil {
		return dto.TaskResponse{}, err
	}
	existing, err := s.find(ctx, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	t := existing
	apply(&t, req)
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	t.UpdatedAt = s.timestamp()
	if t.UpdatedAt.Before(existing.UpdatedAt) {
		t.UpdatedAt = existing.UpdatedAt
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return dto.TaskResponse{}, notFoundOr(err, id)
	}
	s.invalidateCache(ctx)
	return toResponse(t), nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, id)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TaskService) find(ctx context.Context, id string) (dom.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Task{}, notFoundOr(err, id)
	}
	return t, nil
}

// timestamp is truncated to the store's resolution so that what we return
// equals what a later read yields.
func (s *TaskService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("cache invalidate", "error", err)
	}
}

func validate(req dto.TaskRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title must not be blank", dom.ErrInvalidArgument)
	}
	if req.Category == "" {
		return fmt.Errorf("%w: category is required", dom.ErrInvalidArgument)
	}
	if !req.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", dom.ErrInvalidArgument, req.Category)
	}
	if req.Priority == "" {
		return fmt.Errorf("%w: priority is required", dom.ErrInvalidArgument)
	}
	if !req.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", dom.ErrInvalidArgument, req.Priority)
	}
	return nil
}

func apply(t *dom.Task, req dto.TaskRequest) {
	t.Title = req.Title
	t.Description = req.Description
	t.Category = req.Category
	t.Priority = req.Priority
	t.Deadline = nil
	if req.Deadline != nil {
		d := req.Deadline.Time()
		t.Deadline = &d
	}
}

func notFoundOr(err error, id string) error {
	if errors.Is(err, dom.ErrNotFound) {
		return fmt.Errorf("task with id '%s' %w", id, dom.ErrNotFound)
	}
	return err
}

func toResponse(t dom.Task) dto.TaskResponse {
	resp := dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Priority:    t.Priority,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Deadline != nil {
		d := dto.NewDate(*t.Deadline)
		resp.Deadline = &d
	}
	return resp
}
