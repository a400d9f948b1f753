// Package store holds the local, copy-on-write mirror of server entities.
//
// A Store is never modified once handed out. Every operation returns a new
// *Store; collections that the operation did not touch are shared with the
// previous snapshot, so older snapshots stay valid and cheap to keep.
package store

import "github.com/dataspace/mirror/pkg/models"

// ErrorState is the last error reported through an ERROR action.
type ErrorState struct {
	Message string
	Status  int
}

type Store struct {
	spaces      []*models.Space
	datasets    []*models.Dataset
	files       []*models.File
	annotations []*models.Annotation
	activity    []*models.Activity
	users       []*models.User
	bots        []*models.Bot
	boards      []*models.Board

	CurrentSpaceID   string
	CurrentDatasetID string
	Version          uint64
	Err              *ErrorState
}

func New() *Store {
	return &Store{}
}

// Copy returns a distinct Store sharing every collection and the selection
// with s. A nil receiver yields an empty Store.
func (s *Store) Copy() *Store {
	if s == nil {
		return New()
	}
	c := *s
	return &c
}

// Len is the number of records of a kind.
func (s *Store) Len(kind models.Kind) int {
	if s == nil {
		return 0
	}
	c, ok := registry[kind]
	if !ok {
		return 0
	}
	return c.size(s)
}
