package store

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverS3     = "s3"
)

// Options selects and configures a GardenStore backend.
type Options struct {
	Driver string
	Root   string // project root for file and sqlite drivers
	S3     S3Config
}

// Open constructs the GardenStore named by opts.Driver.
func Open(ctx context.Context, opts Options) (GardenStore, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile, "":
		return NewFileStore(opts.Root)
	case DriverSQLite:
		return NewSQLiteStore(opts.Root)
	case DriverS3:
		return NewS3Store(ctx, opts.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q (want memory, file, sqlite or s3)", opts.Driver)
	}
}
