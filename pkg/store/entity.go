package store

import (
	"slices"

	"github.com/dataspace/mirror/pkg/models"
)

// collection is the type-erased view of a slot used by Reduce, which only
// knows the kind of its payload.
type collection interface {
	size(s *Store) int
	insert(s *Store, items []models.Entity) *Store
	update(s *Store, items []models.Entity) *Store
	remove(s *Store, items []models.Entity) *Store
	load(s *Store, items []models.Entity) *Store
}

// slot binds a kind to the Store field that holds it.
type slot[T models.Entity] struct {
	get func(*Store) []T
	set func(*Store, []T)
}

var registry map[models.Kind]collection

func init() {
	registry = map[models.Kind]collection{
		models.KindSpace: slot[*models.Space]{
			get: func(s *Store) []*models.Space { return s.spaces },
			set: func(s *Store, v []*models.Space) { s.spaces = v },
		},
		models.KindDataset: slot[*models.Dataset]{
			get: func(s *Store) []*models.Dataset { return s.datasets },
			set: func(s *Store, v []*models.Dataset) { s.datasets = v },
		},
		models.KindFile: slot[*models.File]{
			get: func(s *Store) []*models.File { return s.files },
			set: func(s *Store, v []*models.File) { s.files = v },
		},
		models.KindAnnotation: slot[*models.Annotation]{
			get: func(s *Store) []*models.Annotation { return s.annotations },
			set: func(s *Store, v []*models.Annotation) { s.annotations = v },
		},
		models.KindActivity: slot[*models.Activity]{
			get: func(s *Store) []*models.Activity { return s.activity },
			set: func(s *Store, v []*models.Activity) { s.activity = v },
		},
		models.KindUser: slot[*models.User]{
			get: func(s *Store) []*models.User { return s.users },
			set: func(s *Store, v []*models.User) { s.users = v },
		},
		models.KindBot: slot[*models.Bot]{
			get: func(s *Store) []*models.Bot { return s.bots },
			set: func(s *Store, v []*models.Bot) { s.bots = v },
		},
		models.KindBoard: slot[*models.Board]{
			get: func(s *Store) []*models.Board { return s.boards },
			set: func(s *Store, v []*models.Board) { s.boards = v },
		},
	}
}

// Key is the storage key of T, e.g. "_file" for *models.File.
func Key[T models.Entity]() string {
	return kindOf[T]().Key()
}

func kindOf[T models.Entity]() models.Kind {
	var zero T
	return zero.Kind()
}

func slotOf[T models.Entity]() (slot[T], bool) {
	sl, ok := registry[kindOf[T]()].(slot[T])
	return sl, ok
}

// List returns the records of type T selected by f, in insertion order.
// The result must not be modified.
func List[T models.Entity](s *Store, f Filter) []T {
	sl, ok := slotOf[T]()
	if s == nil || !ok {
		return nil
	}
	all := sl.get(s)
	if f.mode == matchAll {
		return all
	}
	var out []T
	for _, item := range all {
		if f.match(item.Identifier(), false) {
			out = append(out, item)
		}
	}
	return out
}

// Get returns the first record of type T selected by f.
func Get[T models.Entity](s *Store, f Filter) (T, bool) {
	var zero T
	sl, ok := slotOf[T]()
	if s == nil || !ok {
		return zero, false
	}
	for _, item := range sl.get(s) {
		if f.match(item.Identifier(), true) {
			return item, true
		}
	}
	return zero, false
}

// Insert returns a store with the items whose id is not yet present
// appended. Items without a valid id are ignored.
func Insert[T models.Entity](s *Store, items ...T) *Store {
	next := s.Copy()
	sl, ok := slotOf[T]()
	if !ok {
		return next
	}

	existing := sl.get(next)
	var added []T
	for _, item := range items {
		id := item.Identifier()
		if !id.Valid() || indexOf(existing, id) >= 0 || indexOf(added, id) >= 0 {
			continue
		}
		added = append(added, item)
	}
	if len(added) > 0 {
		sl.set(next, append(slices.Clip(existing), added...))
	}
	return next
}

// Update returns a store where every record sharing an id with one of the
// items is replaced by it. Items with unknown ids are ignored.
func Update[T models.Entity](s *Store, items ...T) *Store {
	next := s.Copy()
	sl, ok := slotOf[T]()
	if !ok {
		return next
	}

	existing := sl.get(next)
	var out []T
	for _, item := range items {
		id := item.Identifier()
		if !id.Valid() {
			continue
		}
		i := indexOf(existing, id)
		if i < 0 {
			continue
		}
		if out == nil {
			out = slices.Clone(existing)
		}
		out[i] = item
	}
	if out != nil {
		sl.set(next, out)
	}
	return next
}

// Delete returns a store without the records sharing an id with one of the
// items.
func Delete[T models.Entity](s *Store, items ...T) *Store {
	next := s.Copy()
	sl, ok := slotOf[T]()
	if !ok {
		return next
	}

	existing := sl.get(next)
	drop := func(item T) bool {
		id := item.Identifier()
		return slices.ContainsFunc(items, func(c T) bool {
			cid := c.Identifier()
			return cid.Valid() && cid == id
		})
	}
	if !slices.ContainsFunc(existing, drop) {
		return next
	}

	out := make([]T, 0, len(existing))
	for _, item := range existing {
		if !drop(item) {
			out = append(out, item)
		}
	}
	sl.set(next, out)
	return next
}

// Load inserts new items and replaces known ones. An empty list leaves the
// collection untouched.
func Load[T models.Entity](s *Store, items ...T) *Store {
	next := s.Copy()
	sl, ok := slotOf[T]()
	if !ok || len(items) == 0 {
		return next
	}

	existing := sl.get(next)
	out := slices.Clone(existing)
	changed := false
	for _, item := range items {
		id := item.Identifier()
		if !id.Valid() {
			continue
		}
		if i := indexOf(out, id); i >= 0 {
			out[i] = item
		} else {
			out = append(out, item)
		}
		changed = true
	}
	if changed {
		sl.set(next, out)
	}
	return next
}

func indexOf[T models.Entity](items []T, id models.ID) int {
	return slices.IndexFunc(items, func(item T) bool { return item.Identifier() == id })
}

func (sl slot[T]) size(s *Store) int { return len(sl.get(s)) }

func (sl slot[T]) insert(s *Store, items []models.Entity) *Store {
	return Insert(s, typed[T](items)...)
}

func (sl slot[T]) update(s *Store, items []models.Entity) *Store {
	return Update(s, typed[T](items)...)
}

func (sl slot[T]) remove(s *Store, items []models.Entity) *Store {
	return Delete(s, typed[T](items)...)
}

func (sl slot[T]) load(s *Store, items []models.Entity) *Store {
	return Load(s, typed[T](items)...)
}

// typed keeps the items of dynamic type T and drops the rest.
func typed[T models.Entity](items []models.Entity) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if v, ok := item.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
