//go:generate mockgen -package mocks -destination mocks/interface.go -source=interface.go
package s3

import (
	"context"
	"errors"
	"time"
)

var ErrKeyNotFound = errors.New("key not found")

// Object is an entry in a bucket listing.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

type BasicClient interface {
	Lister
	Getter
	Putter
	Deleter
}

type Lister interface {
	// List returns every object under prefix, following pagination.
	List(ctx context.Context, prefix string) (objects []Object, err error)
}

type Getter interface {
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(ctx context.Context, key string) (data []byte, err error)
}

type Putter interface {
	Put(ctx context.Context, key string, data []byte) (err error)
}

type Deleter interface {
	Delete(ctx context.Context, key string) error
}
