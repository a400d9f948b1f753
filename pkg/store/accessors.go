package store

import "github.com/dataspace/mirror/pkg/models"

// The typed accessors below never return nil records: when nothing matches
// they return a fresh zero record whose ID is invalid, so chained reads such
// as s.Space(id).Name are always safe.

func (s *Store) Space(id string) *models.Space {
	if id == "" {
		return &models.Space{}
	}
	return getOr[*models.Space](s, Fields(models.Partial{ItemID: id}), &models.Space{})
}

func (s *Store) Spaces() []*models.Space {
	return List[*models.Space](s, All())
}

func (s *Store) Dataset(spaceID, datasetID string) *models.Dataset {
	if spaceID == "" || datasetID == "" {
		return &models.Dataset{}
	}
	return getOr[*models.Dataset](s, Fields(models.Partial{SpaceID: spaceID, ItemID: datasetID}), &models.Dataset{})
}

func (s *Store) Datasets(spaceID string) []*models.Dataset {
	if spaceID == "" {
		return nil
	}
	return List[*models.Dataset](s, Fields(models.Partial{SpaceID: spaceID}))
}

func (s *Store) File(spaceID, datasetID, fileID string) *models.File {
	if spaceID == "" || datasetID == "" || fileID == "" {
		return &models.File{}
	}
	return getOr[*models.File](s, Fields(models.Partial{SpaceID: spaceID, DatasetID: datasetID, ItemID: fileID}), &models.File{})
}

func (s *Store) Files(spaceID, datasetID string) []*models.File {
	if spaceID == "" || datasetID == "" {
		return nil
	}
	return List[*models.File](s, Fields(models.Partial{SpaceID: spaceID, DatasetID: datasetID}))
}

// Annotations lists the annotations under a dataset or a file.
func (s *Store) Annotations(id models.ID) []*models.Annotation {
	switch id.Kind() {
	case models.KindDataset:
		return List[*models.Annotation](s, Fields(models.Partial{SpaceID: id.SpaceID(), DatasetID: id.ItemID()}))
	case models.KindFile:
		return List[*models.Annotation](s, Fields(models.Partial{SpaceID: id.SpaceID(), DatasetID: id.DatasetID(), FileID: id.ItemID()}))
	}
	return nil
}

func (s *Store) Annotation(id models.ID) *models.Annotation {
	return getOr[*models.Annotation](s, Of(id), &models.Annotation{})
}

// Activity lists the entries attached directly to a space, dataset or file.
func (s *Store) Activity(parent models.ID) []*models.Activity {
	if !parent.Valid() {
		return nil
	}
	return List[*models.Activity](s, ChildrenOf(parent))
}

func (s *Store) User(id string) *models.User {
	return getOr[*models.User](s, Of(models.NewUserID(id)), &models.User{})
}

func (s *Store) Users() []*models.User {
	return List[*models.User](s, All())
}

func (s *Store) Bot(spaceID, botID string) *models.Bot {
	return getOr[*models.Bot](s, Of(models.NewBotID(spaceID, botID)), &models.Bot{})
}

func (s *Store) Bots(spaceID string) []*models.Bot {
	return List[*models.Bot](s, ChildrenOf(models.NewSpaceID(spaceID)))
}

func (s *Store) Board(spaceID, boardID string) *models.Board {
	return getOr[*models.Board](s, Of(models.NewBoardID(spaceID, boardID)), &models.Board{})
}

func (s *Store) Boards(spaceID string) []*models.Board {
	return List[*models.Board](s, ChildrenOf(models.NewSpaceID(spaceID)))
}

// CurrentSpace is the selected space, or a zero record.
func (s *Store) CurrentSpace() *models.Space {
	if s == nil {
		return &models.Space{}
	}
	return s.Space(s.CurrentSpaceID)
}

// CurrentDataset is the selected dataset, or a zero record.
func (s *Store) CurrentDataset() *models.Dataset {
	if s == nil {
		return &models.Dataset{}
	}
	return s.Dataset(s.CurrentSpaceID, s.CurrentDatasetID)
}

func getOr[T models.Entity](s *Store, f Filter, empty T) T {
	if v, ok := Get[T](s, f); ok {
		return v
	}
	return empty
}
