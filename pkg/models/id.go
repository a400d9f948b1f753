package models

import (
	"sort"
	"strings"
)

// Identifier field names, as they appear in field bags and on the wire.
const (
	FieldType      = "type"
	FieldSpaceID   = "space_id"
	FieldDatasetID = "dataset_id"
	FieldFileID    = "file_id"
	FieldItemID    = "item_id"
)

// Tag is the one-letter prefix of a compact identifier token.
type Tag byte

const (
	TagSpace           Tag = 's'
	TagDataset         Tag = 'd'
	TagFile            Tag = 'f'
	TagAnnotation      Tag = 'a'
	TagSpaceActivity   Tag = 'x'
	TagDatasetActivity Tag = 'y'
	TagFileActivity    Tag = 'z'
	TagUser            Tag = 'u'
	TagBot             Tag = 'b'
	TagBoard           Tag = 'o'
)

type tagSpec struct {
	kind   Kind
	fields []string
}

var tagSpecs = map[Tag]tagSpec{
	TagSpace:           {KindSpace, []string{FieldItemID}},
	TagDataset:         {KindDataset, []string{FieldSpaceID, FieldItemID}},
	TagFile:            {KindFile, []string{FieldSpaceID, FieldDatasetID, FieldItemID}},
	TagAnnotation:      {KindAnnotation, []string{FieldSpaceID, FieldDatasetID, FieldFileID, FieldItemID}},
	TagSpaceActivity:   {KindActivity, []string{FieldSpaceID, FieldItemID}},
	TagDatasetActivity: {KindActivity, []string{FieldSpaceID, FieldDatasetID, FieldItemID}},
	TagFileActivity:    {KindActivity, []string{FieldSpaceID, FieldDatasetID, FieldFileID, FieldItemID}},
	TagUser:            {KindUser, []string{FieldItemID}},
	TagBot:             {KindBot, []string{FieldSpaceID, FieldItemID}},
	TagBoard:           {KindBoard, []string{FieldSpaceID, FieldItemID}},
}

// tagOrder fixes iteration order so that FromFields is deterministic.
var tagOrder = []Tag{
	TagSpace, TagDataset, TagFile, TagAnnotation,
	TagSpaceActivity, TagDatasetActivity, TagFileActivity,
	TagUser, TagBot, TagBoard,
}

// Kind returns the entity kind the tag addresses.
func (t Tag) Kind() Kind {
	return tagSpecs[t].kind
}

// Fields returns the canonical field order of the tag.
func (t Tag) Fields() []string {
	return append([]string(nil), tagSpecs[t].fields...)
}

// Fields is a loosely typed identifier bag. The "type" key names the kind;
// keys starting with an underscore are ignored.
type Fields map[string]string

// Partial is a possibly incomplete identifier used to filter collections.
// Empty strings mean "absent".
type Partial struct {
	SpaceID   string
	DatasetID string
	FileID    string
	ItemID    string
}

// IsZero reports whether no field is set.
func (p Partial) IsZero() bool {
	return p == Partial{}
}

// ID is a hierarchical identifier: a tag plus the ancestor chain and the
// record's own item id. IDs are values; the zero ID is invalid.
//
// An ID is never partially valid. Any constructor that cannot produce a
// complete identifier returns one whose Valid reports false.
type ID struct {
	tag       Tag
	spaceID   string
	datasetID string
	fileID    string
	itemID    string
}

// Parse reads a compact token such as "f/s1/d1/f1".
func Parse(token string) ID {
	segments := strings.Split(token, "/")
	if len(segments[0]) != 1 {
		return ID{}
	}
	return build(Tag(segments[0][0]), segments[1:]...)
}

// FromFields builds an ID from a field bag carrying an explicit type.
func FromFields(f Fields) ID {
	kind := ParseKind(f[FieldType])
	if kind == KindUnknown {
		return ID{}
	}

	keys := make([]string, 0, len(f))
	for k := range f {
		if k == FieldType || strings.HasPrefix(k, "_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, tag := range tagOrder {
		spec := tagSpecs[tag]
		if spec.kind != kind || !sameSet(keys, spec.fields) {
			continue
		}
		values := make([]string, len(spec.fields))
		for i, name := range spec.fields {
			values[i] = f[name]
		}
		return build(tag, values...)
	}

	return ID{}
}

// FromEntity returns the identifier of a record.
func FromEntity(e Entity) ID {
	if e == nil {
		return ID{}
	}
	return e.Identifier()
}

func NewSpaceID(item string) ID { return build(TagSpace, item) }

func NewDatasetID(space, item string) ID { return build(TagDataset, space, item) }

func NewFileID(space, dataset, item string) ID { return build(TagFile, space, dataset, item) }

func NewAnnotationID(space, dataset, file, item string) ID {
	return build(TagAnnotation, space, dataset, file, item)
}

func NewUserID(item string) ID { return build(TagUser, item) }

func NewBotID(space, item string) ID { return build(TagBot, space, item) }

func NewBoardID(space, item string) ID { return build(TagBoard, space, item) }

// NewActivityID addresses an activity entry attached to a space, dataset or
// file. Any other parent yields an invalid ID.
func NewActivityID(parent ID, item string) ID {
	switch parent.Kind() {
	case KindSpace:
		return build(TagSpaceActivity, parent.itemID, item)
	case KindDataset:
		return build(TagDatasetActivity, parent.spaceID, parent.itemID, item)
	case KindFile:
		return build(TagFileActivity, parent.spaceID, parent.datasetID, parent.itemID, item)
	}
	return ID{}
}

func build(tag Tag, values ...string) ID {
	spec, ok := tagSpecs[tag]
	if !ok || len(values) != len(spec.fields) {
		return ID{}
	}

	id := ID{tag: tag}
	for i, name := range spec.fields {
		if values[i] == "" {
			return ID{}
		}
		switch name {
		case FieldSpaceID:
			id.spaceID = values[i]
		case FieldDatasetID:
			id.datasetID = values[i]
		case FieldFileID:
			id.fileID = values[i]
		case FieldItemID:
			id.itemID = values[i]
		}
	}
	return id
}

func sameSet(sorted []string, fields []string) bool {
	if len(sorted) != len(fields) {
		return false
	}
	want := append([]string(nil), fields...)
	sort.Strings(want)
	for i := range want {
		if want[i] != sorted[i] {
			return false
		}
	}
	return true
}

func (id ID) Valid() bool { return id.tag != 0 }

func (id ID) Tag() Tag { return id.tag }

func (id ID) Kind() Kind { return id.tag.Kind() }

func (id ID) SpaceID() string { return id.spaceID }

func (id ID) DatasetID() string { return id.datasetID }

func (id ID) FileID() string { return id.fileID }

func (id ID) ItemID() string { return id.itemID }

func (id ID) Equal(other ID) bool { return id == other }

// values returns the field values in canonical order.
func (id ID) values() []string {
	spec := tagSpecs[id.tag]
	out := make([]string, len(spec.fields))
	for i, name := range spec.fields {
		out[i] = id.field(name)
	}
	return out
}

func (id ID) field(name string) string {
	switch name {
	case FieldSpaceID:
		return id.spaceID
	case FieldDatasetID:
		return id.datasetID
	case FieldFileID:
		return id.fileID
	case FieldItemID:
		return id.itemID
	}
	return ""
}

// String renders the compact token; invalid IDs render as "".
func (id ID) String() string {
	if !id.Valid() {
		return ""
	}
	return string(id.tag) + "/" + id.Path()
}

// Path is the slash-joined field values without the tag, as used in URLs.
func (id ID) Path() string {
	if !id.Valid() {
		return ""
	}
	return strings.Join(id.values(), "/")
}

// Fields returns the identifier as a field bag including its type.
func (id ID) Fields() Fields {
	if !id.Valid() {
		return nil
	}
	f := Fields{FieldType: id.Kind().Name()}
	for _, name := range tagSpecs[id.tag].fields {
		f[name] = id.field(name)
	}
	return f
}

// Partial converts the identifier into a filter selecting the record itself.
func (id ID) Partial() Partial {
	return Partial{SpaceID: id.spaceID, DatasetID: id.datasetID, FileID: id.fileID, ItemID: id.itemID}
}

// Parent returns the identifier of the record this one hangs under.
// Top-level identifiers have no parent and return an invalid ID.
func (id ID) Parent() ID {
	switch id.tag {
	case TagDataset, TagSpaceActivity, TagBot, TagBoard:
		return NewSpaceID(id.spaceID)
	case TagFile, TagDatasetActivity:
		return NewDatasetID(id.spaceID, id.datasetID)
	case TagAnnotation, TagFileActivity:
		return NewFileID(id.spaceID, id.datasetID, id.fileID)
	}
	return ID{}
}

// WithItem returns a sibling identifier with a different item id.
func (id ID) WithItem(item string) ID {
	if !id.Valid() {
		return ID{}
	}
	values := id.values()
	values[len(values)-1] = item
	return build(id.tag, values...)
}
