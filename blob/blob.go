package blob

import (
	"context"
	"fmt"
)

// Store is a flat namespace of byte objects.
type Store interface {
	// Put replaces the object called name with data.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the object's contents, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error

	// Exists reports whether the object is present.
	Exists(ctx context.Context, name string) (bool, error)
}

type Kind string

const (
	KindLocal Kind = "local"
	KindS3    Kind = "s3"
)

// Config selects and configures a Store.
type Config struct {
	Kind Kind `yaml:"kind"`

	// Root is the LocalStore directory.
	Root string `yaml:"root"`

	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

func DefaultConfig() Config {
	return Config{
		Kind: KindLocal,
		Root: "data",
	}
}

// Validate checks the fields required by Kind.
func (c Config) Validate() error {
	switch c.Kind {
	case KindLocal, "":
		if c.Root == "" {
			return ErrRootRequired
		}
	case KindS3:
		if c.Bucket == "" {
			return ErrBucketRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
	return nil
}

// New creates the Store selected by cfg.Kind. An empty kind means local.
func New(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case KindS3:
		return NewS3Store(ctx, cfg)
	default:
		return NewLocalStore(cfg.Root)
	}
}
