package repository

import (
	"context"

	"gorm.io/gorm"

	"apptracker/internal/model"
)

// StatusCount is one row of the per-status aggregation.
type StatusCount struct {
	Status model.Status
	Count  int64
}

// ApplicationRepository defines application persistence operations. Every
// read and write is scoped to the owning user.
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Application, error)
	FindOwned(ctx context.Context, ownerID, id uint) (*model.Application, error)
	Update(ctx context.Context, app *model.Application) error
	Delete(ctx context.Context, ownerID, id uint) (int64, error)
	CountByStatus(ctx context.Context, ownerID uint) ([]StatusCount, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ApplicationRepository) error) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create creates a new application.
func (r *applicationRepository) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Omit("User").Create(app).Error
}

// ListByOwner returns the owner's applications, most recently updated first.
func (r *applicationRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Application, error) {
	apps := make([]model.Application, 0)
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// FindOwned finds an application by ID that belongs to ownerID.
func (r *applicationRepository) FindOwned(ctx context.Context, ownerID, id uint) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// Update writes every mutable column of app. The write is scoped to app.UserID.
func (r *applicationRepository) Update(ctx context.Context, app *model.Application) error {
	result := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND user_id = ?", app.ID, app.UserID).
		Updates(map[string]interface{}{
			"company":    app.Company,
			"role":       app.Role,
			"status":     app.Status,
			"location":   app.Location,
			"referral":   app.Referral,
			"source":     app.Source,
			"notes":      app.Notes,
			"updated_at": app.UpdatedAt,
		})
	return result.Error
}

// Delete removes the owner's application and reports how many rows went away.
func (r *applicationRepository) Delete(ctx context.Context, ownerID, id uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.Application{})
	return result.RowsAffected, result.Error
}

// CountByStatus groups the owner's applications by status.
func (r *applicationRepository) CountByStatus(ctx context.Context, ownerID uint) ([]StatusCount, error) {
	var rows []StatusCount
	if err := r.db.WithContext(ctx).Model(&model.Application{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// WithTransaction executes a function within a database transaction.
func (r *applicationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo ApplicationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &applicationRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
