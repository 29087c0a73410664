package wiring

import (
	"log/slog"

	"github.com/felixgeelhaar/golem/internal/infrastructure/config"
	"github.com/felixgeelhaar/golem/pkg/storage"
)

// Workspace bundles the project root, its record store and its configuration.
type Workspace struct {
	Root   string
	Store  *storage.FilesystemRepository
	Config *config.Config
	Logger *slog.Logger
}

// NewWorkspace loads configuration for root. A nil logger means slog.Default().
func NewWorkspace(root string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Root:   root,
		Store:  storage.NewFilesystemRepository(root).WithLogger(logger),
		Config: cfg,
		Logger: logger,
	}, nil
}
