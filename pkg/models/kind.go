package models

import "strings"

// Kind is the closed set of entity types the store knows about.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindSpace
	KindDataset
	KindFile
	KindAnnotation
	KindActivity
	KindUser
	KindBot
	KindBoard
)

var kindNames = [...]string{
	KindUnknown:    "Unknown",
	KindSpace:      "Space",
	KindDataset:    "Dataset",
	KindFile:       "File",
	KindAnnotation: "Annotation",
	KindActivity:   "Activity",
	KindUser:       "User",
	KindBot:        "Bot",
	KindBoard:      "Board",
}

var kindResources = [...]string{
	KindSpace:      "spaces",
	KindDataset:    "datasets",
	KindFile:       "files",
	KindAnnotation: "annotations",
	KindActivity:   "activity",
	KindUser:       "users",
	KindBot:        "bots",
	KindBoard:      "boards",
}

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindSpace, KindDataset, KindFile, KindAnnotation, KindActivity, KindUser, KindBot, KindBoard}
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Name is the lower-case form used as the "type" field of an identifier.
func (k Kind) Name() string {
	return strings.ToLower(k.String())
}

// Key is the storage slug of the kind, e.g. "_file".
func (k Kind) Key() string {
	return "_" + k.Name()
}

// Resource is the REST collection serving records of this kind.
func (k Kind) Resource() string {
	if k == KindUnknown || int(k) >= len(kindResources) {
		return ""
	}
	return kindResources[k]
}

// ParseKind resolves a kind from its name, case-insensitively.
func ParseKind(s string) Kind {
	for _, k := range Kinds() {
		if strings.EqualFold(k.String(), s) {
			return k
		}
	}
	return KindUnknown
}
