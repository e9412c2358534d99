package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"alarmdesk"
	"alarmdesk/internal/logger"
	"alarmdesk/internal/repository"
)

var ErrSourceNotFound = errors.New("source not found")

type SourceAdminService struct {
	sources repository.SourceRepo
	log     *logger.Logger
}

var _ SourceAdmin = (*SourceAdminService)(nil)

func NewSourceAdminService(sources repository.SourceRepo, log *logger.Logger) *SourceAdminService {
	return &SourceAdminService{sources: sources, log: log}
}

func (s *SourceAdminService) Create(ctx context.Context, src alarmdesk.Source) (alarmdesk.Source, error) {
	if err := src.Validate(); err != nil {
		return alarmdesk.Source{}, err
	}
	src.ID = uuid.NewString()
	if err := s.sources.Create(ctx, &src); err != nil {
		return alarmdesk.Source{}, fmt.Errorf("create source: %w", err)
	}
	s.log.Infow("source created", "source_id", src.ID, "label", src.Label)
	return src, nil
}

func (s *SourceAdminService) Update(ctx context.Context, src alarmdesk.Source) (alarmdesk.Source, error) {
	if src.ID == "" {
		return alarmdesk.Source{}, ErrSourceNotFound
	}
	if err := src.Validate(); err != nil {
		return alarmdesk.Source{}, err
	}
	if err := s.sources.Update(ctx, &src); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return alarmdesk.Source{}, ErrSourceNotFound
		}
		return alarmdesk.Source{}, fmt.Errorf("update source: %w", err)
	}
	s.log.Infow("source updated", "source_id", src.ID, "label", src.Label)
	return src, nil
}

func (s *SourceAdminService) Delete(ctx context.Context, id string) error {
	if err := s.sources.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSourceNotFound
		}
		return fmt.Errorf("delete source: %w", err)
	}
	s.log.Infow("source deleted", "source_id", id)
	return nil
}

func (s *SourceAdminService) Get(ctx context.Context, id string) (*alarmdesk.Source, error) {
	src, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if src == nil {
		return nil, ErrSourceNotFound
	}
	return src, nil
}

func (s *SourceAdminService) List(ctx context.Context) ([]alarmdesk.Source, error) {
	return s.sources.List(ctx, false)
}
