package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/agetags-server/internal/agerules"
	"github.com/listenupapp/agetags-server/internal/domain"
	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
	"github.com/listenupapp/agetags-server/internal/id"
	"github.com/listenupapp/agetags-server/internal/validation"
)

// CatalogStore persists catalog titles.
// *sqlite.Store implements it.
type CatalogStore interface {
	CreateTitle(ctx context.Context, t *domain.Title) error
	GetTitle(ctx context.Context, titleID string) (*domain.Title, error)
	ListTitles(ctx context.Context) ([]*domain.Title, error)
	DeleteTitle(ctx context.Context, titleID string) error
}

// CreateTitleInput is the payload for adding a title to the catalog.
type CreateTitleInput struct {
	Kind   string   `json:"kind" validate:"required,oneof=movie tv"`
	TMDBID int      `json:"tmdb_id" validate:"gt=0"`
	Name   string   `json:"name" validate:"required,max=500"`
	Tags   []string `json:"tags,omitempty" validate:"omitempty,dive,required,max=100"`
}

// CatalogService manages the titles the age-tag task works on.
type CatalogService struct {
	store     CatalogStore
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store CatalogStore, validator *validation.Validator, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:     store,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateTitle validates input and adds a title. Kind aliases such as "film" or "series" are accepted.
func (s *CatalogService) CreateTitle(ctx context.Context, input CreateTitleInput) (*domain.Title, error) {
	if kind, ok := agerules.ParseKind(input.Kind); ok {
		input.Kind = string(kind)
	}
	input.Name = strings.TrimSpace(input.Name)

	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	titleID, err := id.Generate(id.PrefixTitle)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	title := &domain.Title{
		ID:        titleID,
		Kind:      agerules.Kind(input.Kind),
		TMDBID:    input.TMDBID,
		Name:      input.Name,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, tag := range input.Tags {
		title.AddTag(strings.TrimSpace(tag))
	}

	if err := s.store.CreateTitle(ctx, title); err != nil {
		return nil, err
	}

	s.logger.Info("title added",
		"title_id", title.ID,
		"kind", title.Kind,
		"tmdb_id", title.TMDBID,
		"name", title.Name,
	)
	return title, nil
}

// GetTitle returns one title.
func (s *CatalogService) GetTitle(ctx context.Context, titleID string) (*domain.Title, error) {
	if !id.HasPrefix(titleID, id.PrefixTitle) {
		return nil, domainerrors.NotFoundf("title %s not found", titleID)
	}
	return s.store.GetTitle(ctx, titleID)
}

// ListTitles returns every title ordered by name.
func (s *CatalogService) ListTitles(ctx context.Context) ([]*domain.Title, error) {
	return s.store.ListTitles(ctx)
}

// DeleteTitle removes a title.
func (s *CatalogService) DeleteTitle(ctx context.Context, titleID string) error {
	if !id.HasPrefix(titleID, id.PrefixTitle) {
		return domainerrors.NotFoundf("title %s not found", titleID)
	}
	if err := s.store.DeleteTitle(ctx, titleID); err != nil {
		return err
	}
	s.logger.Info("title removed", "title_id", titleID)
	return nil
}
