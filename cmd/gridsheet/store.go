package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/storage"
)

// openStore parses a --store value. The returned func releases the backend.
func openStore(ctx context.Context, spec string) (storage.BlobStore, func() error, error) {
	noop := func() error { return nil }
	switch {
	case spec == "memory":
		return storage.NewMemoryStore(), noop, nil
	case strings.HasPrefix(spec, "dir:"):
		dir := strings.TrimPrefix(spec, "dir:")
		if dir == "" {
			return nil, nil, fmt.Errorf("invalid store %q: missing directory", spec)
		}
		store, err := storage.NewDirStore(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", dir, err)
		}
		return store, noop, nil
	case strings.HasPrefix(spec, "gs://"):
		bucket := strings.TrimSuffix(strings.TrimPrefix(spec, "gs://"), "/")
		if bucket == "" || strings.Contains(bucket, "/") {
			return nil, nil, fmt.Errorf("invalid store %q: want gs://<bucket>", spec)
		}
		store, err := storage.NewGCSStore(ctx, bucket)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("invalid store %q (must be memory, dir:<path> or gs://<bucket>)", spec)
}
