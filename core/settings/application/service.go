package application

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/AzielCF/az-insights/core/settings/domain"
	"github.com/AzielCF/az-insights/core/settings/infrastructure"
)

type SettingsService struct {
	repo domain.ISettingsRepository
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		repo: infrastructure.NewSettingsGormRepository(db),
	}
}

func (s *SettingsService) InitSchema(ctx context.Context) error {
	return s.repo.InitSchema(ctx)
}

// ContextLimits holds the stored overrides; nil means use the configured
// default.
type ContextLimits struct {
	MaxTokens   *int
	TokenBuffer *int
}

func (s *SettingsService) GetContextLimits(ctx context.Context) (ContextLimits, error) {
	var limits ContextLimits

	maxTokens, err := s.getInt(ctx, domain.KeyContextMaxTokens)
	if err != nil {
		return limits, err
	}
	buffer, err := s.getInt(ctx, domain.KeyContextTokenBuffer)
	if err != nil {
		return limits, err
	}

	limits.MaxTokens = maxTokens
	limits.TokenBuffer = buffer
	return limits, nil
}

func (s *SettingsService) SetContextLimits(ctx context.Context, maxTokens, tokenBuffer int) error {
	if maxTokens < 0 {
		maxTokens = 0
	}
	if tokenBuffer < 0 {
		tokenBuffer = 0
	}
	if err := s.repo.Set(ctx, domain.KeyContextMaxTokens, strconv.Itoa(maxTokens)); err != nil {
		return err
	}
	return s.repo.Set(ctx, domain.KeyContextTokenBuffer, strconv.Itoa(tokenBuffer))
}

func (s *SettingsService) ResetContextLimits(ctx context.Context) error {
	if err := s.repo.Delete(ctx, domain.KeyContextMaxTokens); err != nil {
		return err
	}
	return s.repo.Delete(ctx, domain.KeyContextTokenBuffer)
}

func (s *SettingsService) getInt(ctx context.Context, key string) (*int, error) {
	val, err := s.repo.Get(ctx, key)
	if err != nil || val == "" {
		return nil, err
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return nil, nil
	}
	return &n, nil
}
