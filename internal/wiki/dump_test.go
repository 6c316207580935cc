package wiki

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unki2aut/martin-sgr-agent-erc3/internal/erc3"
)

type fakeSource struct {
	pages map[string]string
}

func (s *fakeSource) ListWiki(ctx context.Context) (*erc3.WikiList, error) {
	paths := make([]string, 0, len(s.pages))
	for p := range s.pages {
		paths = append(paths, p)
	}
	return &erc3.WikiList{Paths: paths}, nil
}

func (s *fakeSource) LoadWiki(ctx context.Context, file string) (*erc3.WikiFile, error) {
	return &erc3.WikiFile{File: file, Content: s.pages[file]}, nil
}

func TestDumpWritesTree(t *testing.T) {
	src := &fakeSource{pages: map[string]string{
		"rulebook.md":    "# Rules",
		"people/dana.md": "Dana leads Apollo.",
	}}
	dir := t.TempDir()

	written, err := Dump(context.Background(), src, dir, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 2, written)

	data, err := os.ReadFile(filepath.Join(dir, "rulebook.md"))
	require.NoError(t, err)
	require.Equal(t, "# Rules", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "people", "dana.md"))
	require.NoError(t, err)
	require.Equal(t, "Dana leads Apollo.", string(data))
}

func TestDumpRejectsEscapingPaths(t *testing.T) {
	src := &fakeSource{pages: map[string]string{
		"../outside.md": "nope",
	}}
	dir := t.TempDir()

	_, err := Dump(context.Background(), src, dir, zap.NewNop())
	require.Error(t, err)
	require.NoFileExists(t, filepath.Join(dir, "..", "outside.md"))
}
