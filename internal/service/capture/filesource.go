package capture

import (
	"context"
	"fmt"
	"os"
)

// FileFrameSource reads frames from a fixture image on disk. It backs test
// mode, where no camera is attached.
type FileFrameSource struct {
	path string
}

// NewFileFrameSource creates a source serving the image at path.
func NewFileFrameSource(path string) *FileFrameSource {
	return &FileFrameSource{path: path}
}

// NextFrame returns the fixture image contents.
func (s *FileFrameSource) NextFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading test frame %s: %w", s.path, err)
	}
	return data, nil
}
