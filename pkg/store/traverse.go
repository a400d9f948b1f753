package store

import "github.com/dataspace/mirror/pkg/models"

// Traversal derives related identifiers from a record id alone; records
// carry no parent pointers. A nil store yields zero records and nil lists.

// SpaceOf returns the space a record belongs to.
func SpaceOf(s *Store, id models.ID) *models.Space {
	if id.Kind() == models.KindSpace {
		return s.Space(id.ItemID())
	}
	return s.Space(id.SpaceID())
}

// DatasetOf returns the dataset a record belongs to, or the dataset itself.
func DatasetOf(s *Store, id models.ID) *models.Dataset {
	if id.Kind() == models.KindDataset {
		return s.Dataset(id.SpaceID(), id.ItemID())
	}
	return s.Dataset(id.SpaceID(), id.DatasetID())
}

// FileOf returns the file an annotation or file activity hangs under, or
// the file itself.
func FileOf(s *Store, id models.ID) *models.File {
	if id.Kind() == models.KindFile {
		return s.File(id.SpaceID(), id.DatasetID(), id.ItemID())
	}
	return s.File(id.SpaceID(), id.DatasetID(), id.FileID())
}

// FilesOf lists the files of the dataset addressed by id or containing it.
func FilesOf(s *Store, id models.ID) []*models.File {
	d := DatasetOf(s, id)
	if !d.ID.Valid() {
		return nil
	}
	return s.Files(d.ID.SpaceID(), d.ID.ItemID())
}

// DatasetsOf lists the datasets of the space addressed by id or containing it.
func DatasetsOf(s *Store, id models.ID) []*models.Dataset {
	sp := SpaceOf(s, id)
	if !sp.ID.Valid() {
		return nil
	}
	return s.Datasets(sp.ID.ItemID())
}

func AnnotationsOf(s *Store, id models.ID) []*models.Annotation {
	return s.Annotations(id)
}

func ActivityOf(s *Store, id models.ID) []*models.Activity {
	return s.Activity(id)
}
