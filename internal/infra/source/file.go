package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
)

// FileSource reads survey exports from the local filesystem. Relative
// locations resolve against Root when it is set.
type FileSource struct {
	Root string
}

// NewFileSource constructs a file-backed source.
func NewFileSource(root string) *FileSource {
	return &FileSource{Root: root}
}

// Fetch implements survey.Source.
func (s *FileSource) Fetch(ctx context.Context, ref survey.SourceRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := ref.Location
	if s.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.Root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey file: %w", err)
	}
	return data, nil
}

var _ survey.Source = (*FileSource)(nil)
