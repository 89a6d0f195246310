// Package gridsheet provides the spreadsheet document mutation API.
//
// A Service loads a whole spreadsheet snapshot, applies one mutation, bumps
// its updated_at and writes the whole snapshot back. Writes to the same
// document are serialized in-process unless disabled in Options.
package gridsheet

import (
	"os"
	"strconv"
	"time"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/formula"
)

const (
	// DefaultContainer is the top-level storage prefix.
	DefaultContainer = "gbo"
	// DefaultUserID owns documents when no user is configured.
	DefaultUserID = "default-user"
	// DefaultStorageTimeout bounds every blob store call.
	DefaultStorageTimeout = 10 * time.Second
)

// Options configures a Service.
type Options struct {
	// Container is the top-level storage prefix.
	Container string
	// UserID owns every document the service creates and lists.
	UserID string
	// StorageTimeout bounds every blob store call. Zero disables the bound.
	StorageTimeout time.Duration
	// SerializeWrites holds a per-document lock across each read-modify-write.
	// When false, concurrent mutations of one document are last-writer-wins.
	SerializeWrites bool
	// Clock supplies timestamps and the TODAY/NOW time source.
	Clock formula.Clock
}

// DefaultOptions returns default service options.
func DefaultOptions() Options {
	return Options{
		Container:       DefaultContainer,
		UserID:          DefaultUserID,
		StorageTimeout:  DefaultStorageTimeout,
		SerializeWrites: true,
		Clock:           formula.WallClock{},
	}
}

// Option adjusts Options.
type Option func(*Options)

// WithContainer sets the storage prefix.
func WithContainer(container string) Option {
	return func(o *Options) { o.Container = container }
}

// WithUserID sets the owning user.
func WithUserID(userID string) Option {
	return func(o *Options) { o.UserID = userID }
}

// WithStorageTimeout sets the per-call storage timeout.
func WithStorageTimeout(d time.Duration) Option {
	return func(o *Options) { o.StorageTimeout = d }
}

// WithSerializedWrites toggles per-document write serialization.
func WithSerializedWrites(on bool) Option {
	return func(o *Options) { o.SerializeWrites = on }
}

// WithClock overrides the time source.
func WithClock(c formula.Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// OptionsFromEnv returns Option setters for every GRIDSHEET_* variable that is
// set and parses. Unset or malformed variables keep their defaults.
func OptionsFromEnv() []Option {
	var opts []Option
	if v := os.Getenv("GRIDSHEET_CONTAINER"); v != "" {
		opts = append(opts, WithContainer(v))
	}
	if v := os.Getenv("GRIDSHEET_USER"); v != "" {
		opts = append(opts, WithUserID(v))
	}
	if v := os.Getenv("GRIDSHEET_STORAGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			opts = append(opts, WithStorageTimeout(d))
		}
	}
	if v := os.Getenv("GRIDSHEET_SERIALIZE_WRITES"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			opts = append(opts, WithSerializedWrites(on))
		}
	}
	return opts
}
