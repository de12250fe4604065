package api

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/SuperrNaruto/chatdl/config"
	"github.com/SuperrNaruto/chatdl/database"
	"github.com/SuperrNaruto/chatdl/pkg/apperr"
)

// DefaultDownloadPath returns the current global destination fallback.
func (s *Service) DefaultDownloadPath() string {
	return config.DefaultDownloadPath()
}

// SetDefaultDownloadPath persists a new global destination fallback and
// applies it to future matches. Existing tasks keep their resolved
// paths.
func (s *Service) SetDefaultDownloadPath(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return apperr.Validationf("download path must not be empty")
	}
	path = filepath.Clean(path)
	if err := database.SetConfigItem(ctx, database.ConfigKeyDownloadPath, path); err != nil {
		return err
	}
	config.SetDefaultDownloadPath(path)
	return nil
}

// DefaultFilenameTemplate returns the current global template fallback.
func (s *Service) DefaultFilenameTemplate() string {
	return config.DefaultFilenameTemplate()
}

// SetDefaultFilenameTemplate persists a new global filename template
// and applies it to future matches.
func (s *Service) SetDefaultFilenameTemplate(ctx context.Context, template string) error {
	template = strings.TrimSpace(template)
	if template == "" {
		return apperr.Validationf("filename template must not be empty")
	}
	if err := database.SetConfigItem(ctx, database.ConfigKeyFilenameTemplate, template); err != nil {
		return err
	}
	config.SetDefaultFilenameTemplate(template)
	return nil
}
