package store

import (
	"context"
	"errors"

	"trackgen/api/internal/track"
)

// ErrNotFound is what Get returns for unknown ids.
var ErrNotFound = track.ErrNotFound

// ErrDuplicateID reports an id collision on insert.
var ErrDuplicateID = errors.New("track id already exists")

// Repo is a track store plus its lifecycle hooks.
type Repo interface {
	track.Store
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
