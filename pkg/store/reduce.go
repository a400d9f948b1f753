package store

import "github.com/dataspace/mirror/pkg/models"

type ActionType string

const (
	ActionCreate ActionType = "CREATE"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
	ActionLoad   ActionType = "LOAD"
	ActionError  ActionType = "ERROR"
	ActionSelect ActionType = "SELECT"
	ActionReset  ActionType = "RESET"
)

// Action is a request to change the store. Payload may mix kinds; the kind
// of the first non-nil element selects the collection and elements of any
// other kind are ignored.
type Action struct {
	Type    ActionType
	Payload []models.Entity

	// ERROR
	Error  string
	Status int

	// SELECT
	SpaceID   string
	DatasetID string
}

func NewAction(t ActionType, payload ...models.Entity) *Action {
	return &Action{Type: t, Payload: payload}
}

func ErrorAction(message string, status int) *Action {
	return &Action{Type: ActionError, Error: message, Status: status}
}

func SelectAction(spaceID, datasetID string) *Action {
	return &Action{Type: ActionSelect, SpaceID: spaceID, DatasetID: datasetID}
}

// Reduce applies action to state. It never panics and never modifies state.
// A nil or unrecognised action, or a data action with an empty payload,
// returns state itself; anything else returns a new Store with Version
// incremented.
func Reduce(state *Store, action *Action) *Store {
	if action == nil {
		return state
	}

	var next *Store
	switch action.Type {
	case ActionCreate, ActionUpdate, ActionDelete, ActionLoad:
		next = reduceData(state, action)
		if next == nil {
			return state
		}
	case ActionError:
		next = state.Copy()
		next.Err = &ErrorState{Message: action.Error, Status: action.Status}
	case ActionSelect:
		next = state.Copy()
		next.CurrentSpaceID = action.SpaceID
		next.CurrentDatasetID = action.DatasetID
	case ActionReset:
		next = New()
	default:
		return state
	}

	if state != nil {
		next.Version = state.Version + 1
	} else {
		next.Version = 1
	}
	return next
}

func reduceData(state *Store, action *Action) *Store {
	payload := make([]models.Entity, 0, len(action.Payload))
	for _, item := range action.Payload {
		if item != nil {
			payload = append(payload, item)
		}
	}
	if len(payload) == 0 {
		return nil
	}

	c, ok := registry[payload[0].Kind()]
	if !ok {
		return nil
	}

	switch action.Type {
	case ActionCreate:
		return c.insert(state, payload)
	case ActionUpdate:
		return c.update(state, payload)
	case ActionDelete:
		return c.remove(state, payload)
	default:
		return c.load(state, payload)
	}
}
