// Package wiki mirrors a workspace wiki tree to local disk for offline
// inspection of benchmark environments.
package wiki

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
)

// Source is the wiki slice of the task client.
type Source interface {
	ListWiki(ctx context.Context) (*erc3.WikiList, error)
	LoadWiki(ctx context.Context, file string) (*erc3.WikiFile, error)
}

// Dump downloads every wiki page into dir, preserving the wiki paths.
// It returns the number of files written.
func Dump(ctx context.Context, src Source, dir string, logger *zap.Logger) (int, error) {
	list, err := src.ListWiki(ctx)
	if err != nil {
		return 0, fmt.Errorf("list wiki: %w", err)
	}

	written := 0
	for _, path := range list.Paths {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		page, err := src.LoadWiki(ctx, path)
		if err != nil {
			return written, fmt.Errorf("load %s: %w", path, err)
		}
		target, err := localPath(dir, path)
		if err != nil {
			return written, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, fmt.Errorf("create %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, []byte(page.Content), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", target, err)
		}
		logger.Info("dumped wiki page", zap.String("path", path), zap.String("file", target))
		written++
	}
	return written, nil
}

// localPath maps a wiki path onto dir, rejecting anything that would escape
// it.
func localPath(dir, wikiPath string) (string, error) {
	clean := filepath.Clean(strings.TrimPrefix(wikiPath, "/"))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("wiki path escapes dump dir: %q", wikiPath)
	}
	return filepath.Join(dir, clean), nil
}
