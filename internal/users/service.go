package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

type Service struct {
	DB *models.Client
}

func NewService(db *models.Client) *Service {
	return &Service{DB: db}
}

func (s *Service) ready() error {
	if s == nil || s.DB == nil {
		return errors.New("users service not configured")
	}
	return nil
}

// UpsertFromAuth stores the identity from OAuth so resumes have an owner row to reference.
// An empty name keeps the stored one.
func (s *Service) UpsertFromAuth(ctx context.Context, id Identity) (models.User, error) {
	if err := s.ready(); err != nil {
		return models.User{}, err
	}
	id.ID = strings.TrimSpace(id.ID)
	id.Email = strings.TrimSpace(id.Email)
	if id.ID == "" || id.Email == "" {
		return models.User{}, fmt.Errorf("%w: id and email are required", ErrInvalidInput)
	}

	var name *string
	update := store.Data{"email": id.Email}
	if n := strings.TrimSpace(id.Name); n != "" {
		name = &n
		update["name"] = n
	}
	u, err := s.DB.User.Upsert(ctx, store.UpsertArgs[models.User]{
		Where:  store.Eq(store.ColumnID, id.ID),
		Create: models.User{ID: id.ID, Email: id.Email, Name: name},
		Update: update,
	})
	if err != nil {
		return models.User{}, err
	}
	telemetry.Info("users.upserted", map[string]any{"user_id": u.ID})
	return u, nil
}

// GetByID returns the user with the id of the owned resume loaded, when there is one.
func (s *Service) GetByID(ctx context.Context, userID string) (models.User, error) {
	if err := s.ready(); err != nil {
		return models.User{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return models.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	u, err := s.DB.User.FindUnique(ctx, store.FindUniqueArgs{
		Where:   store.Eq(store.ColumnID, userID),
		Include: []store.Include{store.With("resume")},
	})
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// Delete removes the user. The resume stays behind without an owner.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.DB.User.Delete(ctx, store.FindUniqueArgs{Where: store.Eq(store.ColumnID, userID)})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err == nil {
		telemetry.Info("users.deleted", map[string]any{"user_id": userID})
	}
	return err
}

// EnsureFromClaims makes sure a row exists for a JWT subject before it owns anything.
// A known user is left untouched. A new one needs an email.
func (s *Service) EnsureFromClaims(ctx context.Context, id Identity) error {
	if err := s.ready(); err != nil {
		return err
	}
	exists, err := s.exists(ctx, id.ID)
	if err != nil || exists {
		return err
	}
	_, err = s.UpsertFromAuth(ctx, id)
	if errors.Is(err, store.ErrUniqueViolation) {
		// a concurrent first request for the same subject won the insert
		if exists, cerr := s.exists(ctx, id.ID); cerr == nil && exists {
			return nil
		}
	}
	return err
}

func (s *Service) exists(ctx context.Context, userID string) (bool, error) {
	n, err := s.DB.User.Count(ctx, store.CountArgs{Where: store.Eq(store.ColumnID, userID)})
	return n > 0, err
}
