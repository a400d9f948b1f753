package store

import (
	"strings"

	"github.com/dataspace/mirror/pkg/models"
)

type filterMode uint8

const (
	matchAll filterMode = iota
	matchToken
	matchFields
	matchID
	matchChildren
)

// Filter selects records of a collection. The zero Filter matches all.
type Filter struct {
	mode    filterMode
	token   string
	partial models.Partial
	id      models.ID
}

func All() Filter { return Filter{} }

// Token matches records whose compact id contains s.
func Token(s string) Filter { return Filter{mode: matchToken, token: s} }

// Fields matches by a partial identifier. Every ancestor field present must
// equal the record's. ItemID is compared to the record's own item id by Get
// and to the first ancestor level absent from p by List, which is how the
// children of a parent are listed.
func Fields(p models.Partial) Filter {
	if p.IsZero() {
		return All()
	}
	return Filter{mode: matchFields, partial: p}
}

// Of matches exactly one identifier.
func Of(id models.ID) Filter { return Filter{mode: matchID, id: id} }

// ChildrenOf matches records whose direct parent is id.
func ChildrenOf(id models.ID) Filter { return Filter{mode: matchChildren, id: id} }

func (f Filter) match(id models.ID, get bool) bool {
	switch f.mode {
	case matchAll:
		return true
	case matchToken:
		return strings.Contains(id.String(), f.token)
	case matchID:
		return id.Valid() && id == f.id
	case matchChildren:
		return id.Valid() && id.Parent() == f.id
	}

	p := f.partial
	if !id.Valid() {
		return false
	}
	if p.SpaceID != "" && p.SpaceID != id.SpaceID() {
		return false
	}
	if p.DatasetID != "" && p.DatasetID != id.DatasetID() {
		return false
	}
	if p.FileID != "" && p.FileID != id.FileID() {
		return false
	}
	if p.ItemID == "" {
		return true
	}
	if get {
		return p.ItemID == id.ItemID()
	}
	return p.ItemID == childField(p, id)
}

// childField returns the value of id at the first level p leaves open.
func childField(p models.Partial, id models.ID) string {
	switch {
	case p.SpaceID == "":
		return id.SpaceID()
	case p.DatasetID == "":
		return id.DatasetID()
	case p.FileID == "":
		return id.FileID()
	}
	return id.ItemID()
}
