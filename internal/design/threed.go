package design

import (
	"context"
	"errors"

	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// ErrModelGenerationUnavailable reports that no 3D backend is configured.
var ErrModelGenerationUnavailable = errors.New("3D model generation is not available yet")

// ModelGenerator turns a design with rendered views into a 3D model asset
// and returns the stored model id.
type ModelGenerator interface {
	GenerateModel(ctx context.Context, d jewelry.Design) (string, error)
}

// UnavailableModelGenerator is the default backend until a real mesh
// generation service is wired in.
type UnavailableModelGenerator struct{}

func (UnavailableModelGenerator) GenerateModel(context.Context, jewelry.Design) (string, error) {
	return "", ErrModelGenerationUnavailable
}
