package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	infraconfig "github.com/estimate/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalExportArchive keeps exported images under a directory:
// <base>/<yyyy>/<mm>/<dd>/<id>-<file name>
type LocalExportArchive struct {
	basePath  string
	retention time.Duration
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
}

// LocalExportArchiveOption is a functional option for configuring LocalExportArchive
type LocalExportArchiveOption func(*LocalExportArchive)

// WithLocalLogger sets a custom logger for LocalExportArchive
func WithLocalLogger(logger *zap.Logger) LocalExportArchiveOption {
	return func(a *LocalExportArchive) {
		a.logger = logger
	}
}

// WithLocalClock overrides the time source used for paths and retention
func WithLocalClock(now func() time.Time) LocalExportArchiveOption {
	return func(a *LocalExportArchive) {
		a.now = now
	}
}

// NewLocalExportArchive creates the base directory if needed
func NewLocalExportArchive(cfg *infraconfig.ArchiveConfig, opts ...LocalExportArchiveOption) (*LocalExportArchive, error) {
	if cfg == nil {
		return nil, errors.New("archive configuration is required")
	}
	if strings.TrimSpace(cfg.LocalPath) == "" {
		return nil, errors.New("archive local path is required")
	}

	a := &LocalExportArchive{
		basePath:  filepath.Clean(cfg.LocalPath),
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		now:       time.Now,
		newID:     func() string { return uuid.NewString()[:8] },
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := os.MkdirAll(a.basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory %s: %w", a.basePath, err)
	}
	return a, nil
}

// relativePath is the slash-separated path an export is stored under
func (a *LocalExportArchive) relativePath(fileName string) string {
	day := a.now().UTC().Format("2006/01/02")
	name := strings.TrimSpace(path.Base(strings.ReplaceAll(fileName, "\\", "/")))
	if name == "" || name == "." || name == "/" || name == ".." {
		name = "export.png"
	}
	return day + "/" + a.newID() + "-" + name
}

// Archive writes an exported image and returns its path relative to the base
func (a *LocalExportArchive) Archive(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("archive data is empty")
	}

	rel := a.relativePath(fileName)
	full := filepath.Join(a.basePath, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	a.logger.Debug("export archived", zap.String("path", full), zap.Int("size", len(data)))
	if a.retention > 0 {
		if _, err := a.CleanupOlderThan(ctx, a.retention); err != nil {
			a.logger.Warn("archive cleanup failed", zap.Error(err))
		}
	}
	return rel, nil
}

// CleanupOlderThan removes archived images last modified before now-age
func (a *LocalExportArchive) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := a.now().Add(-age)
	deleted := 0

	err := filepath.WalkDir(a.basePath, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || filepath.Ext(p) != ".png" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(p); err == nil {
				deleted++
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deleted, fmt.Errorf("archive cleanup failed: %w", err)
	}

	if deleted > 0 {
		a.logger.Info("old exports removed", zap.Int("deleted", deleted), zap.Duration("age", age))
	}
	return deleted, nil
}

// BasePath returns the archive directory
func (a *LocalExportArchive) BasePath() string {
	return a.basePath
}
