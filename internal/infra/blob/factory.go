// Package blob selects a blob store backend from the environment.
package blob

import (
	"context"
	"fmt"
	"os"
	"strings"

	blobcore "annotcore/internal/infra/blob/core"
	"annotcore/internal/infra/blob/fs"
	"annotcore/internal/infra/blob/memory"
	"annotcore/internal/infra/blob/s3"
)

// Environment variables:
//   ANNOTCORE_BLOB_DRIVER=fs|memory|s3 (default fs)
//   ANNOTCORE_BLOB_FS_ROOT=<dir>       (fs only)

// OpenFromEnv constructs the blob store named by the environment.
func OpenFromEnv(ctx context.Context) (blobcore.Store, error) {
	driver := strings.ToLower(os.Getenv("ANNOTCORE_BLOB_DRIVER"))
	switch driver {
	case "memory":
		return memory.NewStore(), nil
	case "s3":
		return s3.OpenFromEnv(ctx)
	case "", "fs":
		return fs.NewStore(os.Getenv("ANNOTCORE_BLOB_FS_ROOT"))
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
