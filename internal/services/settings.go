package services

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/repository"
)

// Setting keys
const (
	SettingBaseURL          = "base_url"
	SettingTicketsPerDraw   = "tickets_per_draw"
	SettingSchedulerEnabled = "scheduler_enabled"
)

// SettingsService handles settings-related business logic
type SettingsService struct {
	log  logger.Logger
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// Settings is the editable subset of settings. Nil fields are left unchanged.
type Settings struct {
	BaseURL          *string `json:"base_url,omitempty"`
	TicketsPerDraw   *int    `json:"tickets_per_draw,omitempty"`
	SchedulerEnabled *bool   `json:"scheduler_enabled,omitempty"`
}

// GetBaseURL returns the public base URL, or "" if it was never set
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	value, err := s.repo.GetSetting(ctx, SettingBaseURL)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// SetBaseURL saves the public base URL
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	return s.repo.SetSetting(ctx, SettingBaseURL, strings.TrimSuffix(strings.TrimSpace(url), "/"))
}

// TicketsPerDraw returns the stored ticket count or fallback when unset or unparseable
func (s *SettingsService) TicketsPerDraw(ctx context.Context, fallback int) (int, error) {
	value, err := s.repo.GetSetting(ctx, SettingTicketsPerDraw)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return fallback, nil
		}
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback, nil
	}
	return n, nil
}

// SetTicketsPerDraw saves the default ticket count
func (s *SettingsService) SetTicketsPerDraw(ctx context.Context, n int) error {
	if n <= 0 || n > MaxTicketsPerDraw {
		return ErrInvalidTicketCount
	}
	return s.repo.SetSetting(ctx, SettingTicketsPerDraw, strconv.Itoa(n))
}

// SchedulerEnabled reports whether the weekly trigger may run. Defaults to true.
func (s *SettingsService) SchedulerEnabled(ctx context.Context) (bool, error) {
	value, err := s.repo.GetSetting(ctx, SettingSchedulerEnabled)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return value != "false", nil
}

// SetSchedulerEnabled pauses or resumes the weekly trigger
func (s *SettingsService) SetSchedulerEnabled(ctx context.Context, enabled bool) error {
	return s.repo.SetSetting(ctx, SettingSchedulerEnabled, strconv.FormatBool(enabled))
}

// UpdateSettings applies every non-nil field
func (s *SettingsService) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.TicketsPerDraw != nil {
		if err := s.SetTicketsPerDraw(ctx, *settings.TicketsPerDraw); err != nil {
			return err
		}
	}
	if settings.BaseURL != nil {
		if err := s.SetBaseURL(ctx, *settings.BaseURL); err != nil {
			return err
		}
	}
	if settings.SchedulerEnabled != nil {
		if err := s.SetSchedulerEnabled(ctx, *settings.SchedulerEnabled); err != nil {
			return err
		}
	}
	s.log.Info("Settings updated")
	return nil
}

// AllSettings returns the current settings as a map
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]interface{}, error) {
	baseURL, err := s.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := s.TicketsPerDraw(ctx, 0)
	if err != nil {
		return nil, err
	}
	enabled, err := s.SchedulerEnabled(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		SettingBaseURL:          baseURL,
		SettingTicketsPerDraw:   tickets,
		SettingSchedulerEnabled: enabled,
	}, nil
}
