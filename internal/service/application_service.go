package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "apptracker/internal/errors"
	"apptracker/internal/model"
	"apptracker/internal/repository"
)

// ApplicationService handles owner-scoped application operations.
type ApplicationService interface {
	Create(ctx context.Context, ownerID uint, input model.NewApplication) (*model.Application, error)
	List(ctx context.Context, ownerID uint) ([]model.Application, error)
	Get(ctx context.Context, ownerID, id uint) (*model.Application, error)
	Update(ctx context.Context, ownerID, id uint, patch model.ApplicationPatch) (*model.Application, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

type applicationService struct {
	repo repository.ApplicationRepository
	now  func() time.Time
}

// NewApplicationService creates a new application service.
func NewApplicationService(repo repository.ApplicationRepository) ApplicationService {
	return &applicationService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Create validates input, applies defaults and persists a new application.
func (s *applicationService) Create(ctx context.Context, ownerID uint, input model.NewApplication) (*model.Application, error) {
	company, err := requiredText("company", input.Company)
	if err != nil {
		return nil, err
	}
	role, err := requiredText("role", input.Role)
	if err != nil {
		return nil, err
	}
	status := model.StatusApplied
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, invalidStatus()
		}
		status = *input.Status
	}

	now := s.now()
	app := &model.Application{
		UserID:    ownerID,
		Company:   company,
		Role:      role,
		Status:    status,
		Location:  strings.TrimSpace(input.Location),
		Referral:  input.Referral,
		Source:    strings.TrimSpace(input.Source),
		Notes:     strings.TrimSpace(input.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

// List returns the owner's applications, most recently updated first.
func (s *applicationService) List(ctx context.Context, ownerID uint) ([]model.Application, error) {
	apps, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	if apps == nil {
		apps = []model.Application{}
	}
	return apps, nil
}

// Get returns one application if ownerID owns it.
func (s *applicationService) Get(ctx context.Context, ownerID, id uint) (*model.Application, error) {
	app, err := s.repo.FindOwned(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOr(err, "get application")
	}
	return app, nil
}

// Update merges patch into the owner's application. Ownership is checked
// before validation, and a rejected patch leaves the stored row untouched.
func (s *applicationService) Update(ctx context.Context, ownerID, id uint, patch model.ApplicationPatch) (*model.Application, error) {
	var updated *model.Application
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.ApplicationRepository) error {
		existing, err := tx.FindOwned(ctx, ownerID, id)
		if err != nil {
			return notFoundOr(err, "find application")
		}

		next, err := applyPatch(*existing, patch)
		if err != nil {
			return err
		}
		next.UpdatedAt = s.now()

		if err := tx.Update(ctx, &next); err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the owner's application. Zero affected rows is not-found.
func (s *applicationService) Delete(ctx context.Context, ownerID, id uint) error {
	n, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if n == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

// applyPatch returns app with every supplied field validated and overwritten.
func applyPatch(app model.Application, patch model.ApplicationPatch) (model.Application, error) {
	if patch.Company != nil {
		company, err := requiredText("company", *patch.Company)
		if err != nil {
			return app, err
		}
		app.Company = company
	}
	if patch.Role != nil {
		role, err := requiredText("role", *patch.Role)
		if err != nil {
			return app, err
		}
		app.Role = role
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return app, invalidStatus()
		}
		app.Status = *patch.Status
	}
	if patch.Location != nil {
		app.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Referral != nil {
		app.Referral = *patch.Referral
	}
	if patch.Source != nil {
		app.Source = strings.TrimSpace(*patch.Source)
	}
	if patch.Notes != nil {
		app.Notes = strings.TrimSpace(*patch.Notes)
	}
	return app, nil
}

func requiredText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperrors.Invalid(field + " is required")
	}
	return v, nil
}

func invalidStatus() error {
	names := make([]string, len(model.AllStatuses))
	for i, st := range model.AllStatuses {
		names[i] = string(st)
	}
	return apperrors.Invalid("invalid status, expected one of: " + strings.Join(names, ", "))
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrApplicationNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
