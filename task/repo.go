package task

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/apperr"
	"gorm.io/gorm"
)

// Repo is the TaskRequest repository.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Migrate() error {
	return r.db.AutoMigrate(&Request{})
}

func (r *Repo) Get(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundErr(id)
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &req, nil
}

func (r *Repo) create(ctx context.Context, req *Request) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *Repo) update(ctx context.Context, req *Request) error {
	if err := r.db.WithContext(ctx).Save(req).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// ListByCreator returns every task a user created, newest first — the
// source for the "tasks given" listing (spec.md §6 "GET /api/tasks/given").
func (r *Repo) ListByCreator(ctx context.Context, creatorID string) ([]Request, error) {
	var rows []Request
	err := r.db.WithContext(ctx).Where("created_by = ?", creatorID).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return rows, nil
}

// Due returns every non-completed task whose due_at has passed — the
// Settlement Worker's sweep query (spec.md §4.8): "status ≠ Completed AND
// due_at ≤ now". due_at isn't a stored column, so the comparison is
// computed in SQL from created_at + both periods.
func (r *Repo) Due(ctx context.Context, now time.Time) ([]Request, error) {
	var rows []Request
	err := r.db.WithContext(ctx).
		Where("status <> ?", StatusCompleted).
		Where("created_at + (acceptance_period + delivery_period) * interval '1 second' <= ?", now).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return rows, nil
}
