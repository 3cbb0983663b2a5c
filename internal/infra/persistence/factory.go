// Package persistence selects a draft store backend from the environment.
package persistence

import (
	"context"
	"fmt"
	"os"
	"strings"

	"annotcore/internal/infra/persistence/memory"
	"annotcore/internal/infra/persistence/postgres"
	"annotcore/internal/infra/persistence/sqlite"
	"annotcore/pkg/domain"
)

// Environment variables:
//   ANNOTCORE_DRAFT_DRIVER=memory|sqlite|postgres (default sqlite)
//   ANNOTCORE_DRAFT_SQLITE_PATH=<path>            (sqlite only)
//   ANNOTCORE_DRAFT_POSTGRES_DSN=<dsn>            (postgres only)

// OpenDraftStore constructs the draft store named by the environment.
func OpenDraftStore(ctx context.Context) (domain.DraftStore, error) {
	driver := strings.ToLower(os.Getenv("ANNOTCORE_DRAFT_DRIVER"))
	switch driver {
	case "memory":
		return memory.NewStore(), nil
	case "postgres":
		return postgres.NewStore(ctx, os.Getenv("ANNOTCORE_DRAFT_POSTGRES_DSN"))
	case "", "sqlite":
		return sqlite.NewStore(os.Getenv("ANNOTCORE_DRAFT_SQLITE_PATH"))
	default:
		return nil, fmt.Errorf("unknown draft driver %q", driver)
	}
}
