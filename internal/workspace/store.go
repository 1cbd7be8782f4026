package workspace

import (
	"context"
	"fmt"

	"github.com/agentic-research/mggraph/internal/config"
	"github.com/agentic-research/mggraph/internal/graph"
)

// OpenStore opens the graph store selected by cfg.Store.Backend.
func OpenStore(ctx context.Context, cfg config.Config) (graph.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return graph.NewMemoryStore(), nil
	case config.BackendSQLite, "":
		return graph.OpenSQLiteStore(cfg.StorePath())
	case config.BackendNeo4j:
		return graph.OpenNeo4jStore(ctx, graph.Neo4jConfig{
			URI:      cfg.Neo4j.URI,
			Database: cfg.Neo4j.Database,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
		})
	}
	return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalid, cfg.Store.Backend)
}
