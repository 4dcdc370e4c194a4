// Package export reads raw open-item exports from the data drop directory.
//
// An external extraction job writes one pipe-delimited text file per entity
// into the configured directory. The file name pattern carries $entity$ and
// $country$ placeholders.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/openclear/clearing-backend/internal/application/runner"
	"github.com/openclear/clearing-backend/internal/domain/rules"
	"github.com/openclear/clearing-backend/internal/infrastructure/config"
)

// FileExtractor implements runner.Extractor over dropped export files.
type FileExtractor struct {
	dir     string
	pattern string
	rules   rules.Set
	logger  *slog.Logger
}

// NewFileExtractor creates an extractor over the given drop directory.
func NewFileExtractor(cfg config.DataConfig, ruleSet rules.Set, logger *slog.Logger) *FileExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileExtractor{
		dir:     cfg.ExportDir,
		pattern: cfg.ExportName,
		rules:   ruleSet,
		logger:  logger,
	}
}

// Export returns the raw export text for the entity. A file that exists but
// holds no data rows means the extraction ran and found nothing to clear,
// reported as runner.ErrNoOpenItems. A missing file is an error: the
// extraction job never delivered.
func (e *FileExtractor) Export(ctx context.Context, entity string, accounts []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := config.ExpandName(e.pattern, entity, e.rules[entity].Country)
	path := filepath.Join(e.dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("export file %s missing: %w", name, err)
		}
		return "", fmt.Errorf("reading export file %s: %w", name, err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", runner.ErrNoOpenItems
	}

	e.logger.Debug("Export file read", "entity", entity, "path", path, "bytes", len(data), "accounts", len(accounts))
	return text, nil
}
