package models

import (
	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
)

// Entity is implemented by every record the store holds.
// Kind must not dereference its receiver: the store calls it on nil
// pointers to resolve collections.
type Entity interface {
	Kind() Kind
	Identifier() ID
}

var idFields = []string{FieldSpaceID, FieldDatasetID, FieldFileID, FieldItemID}

// decodeID extracts the flattened identifier fields of a record body.
func decodeID(data []byte, kind Kind) (ID, error) {
	f := Fields{FieldType: kind.Name()}
	for _, name := range idFields {
		v, err := jsonparser.GetString(data, name)
		if err == jsonparser.KeyPathNotFoundError {
			continue
		}
		if err != nil {
			return ID{}, err
		}
		if v != "" {
			f[name] = v
		}
	}
	return FromFields(f), nil
}

// encodeWithID marshals v and adds the identifier fields at the top level.
func encodeWithID(id ID, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if !id.Valid() {
		return body, nil
	}
	for _, name := range idFields {
		value := id.field(name)
		if value == "" {
			continue
		}
		quoted, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		body, err = jsonparser.Set(body, quoted, name)
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

// EncodeUnder marshals a record that has no identifier yet and adds the
// ancestor fields that place it under parent. A space parent contributes
// space_id, a dataset parent space_id and dataset_id, a file parent all
// three. An invalid parent adds nothing.
func EncodeUnder(parent ID, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields []string
	switch parent.Kind() {
	case KindSpace:
		fields = []string{FieldSpaceID, parent.itemID}
	case KindDataset:
		fields = []string{FieldSpaceID, parent.spaceID, FieldDatasetID, parent.itemID}
	case KindFile:
		fields = []string{FieldSpaceID, parent.spaceID, FieldDatasetID, parent.datasetID, FieldFileID, parent.itemID}
	}
	for i := 0; i < len(fields); i += 2 {
		quoted, err := json.Marshal(fields[i+1])
		if err != nil {
			return nil, err
		}
		if body, err = jsonparser.Set(body, quoted, fields[i]); err != nil {
			return nil, err
		}
	}
	return body, nil
}
