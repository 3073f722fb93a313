package model

import "encoding/json"

// EventAction is the kind of change a realtime event reports.
type EventAction string

const (
	EventActionCreate EventAction = "create"
	EventActionUpdate EventAction = "update"
	EventActionDelete EventAction = "delete"
)

// RealtimeEvent is one push notification of a single create/update/delete on
// the remote store.
type RealtimeEvent struct {
	Action EventAction `json:"action"`
	Record Record      `json:"record"`
}

// ParseRealtimeEvent validates an untyped payload against the realtime event
// shape and returns the typed event. ok is false when the payload does not
// structurally match: unknown action, or a record missing id, collectionId or
// collectionName. Accepts RealtimeEvent values, generic maps, and raw JSON.
func ParseRealtimeEvent(raw interface{}) (RealtimeEvent, bool) {
	switch v := raw.(type) {
	case RealtimeEvent:
		return validateEvent(v)
	case *RealtimeEvent:
		if v == nil {
			return RealtimeEvent{}, false
		}
		return validateEvent(*v)
	case []byte:
		var evt RealtimeEvent
		if err := json.Unmarshal(v, &evt); err != nil {
			return RealtimeEvent{}, false
		}
		return validateEvent(evt)
	case json.RawMessage:
		return ParseRealtimeEvent([]byte(v))
	case map[string]interface{}:
		action, _ := v["action"].(string)
		record, _ := v["record"].(map[string]interface{})
		if record == nil {
			return RealtimeEvent{}, false
		}
		return validateEvent(RealtimeEvent{Action: EventAction(action), Record: Record(record)})
	default:
		return RealtimeEvent{}, false
	}
}

func validateEvent(evt RealtimeEvent) (RealtimeEvent, bool) {
	switch evt.Action {
	case EventActionCreate, EventActionUpdate, EventActionDelete:
	default:
		return RealtimeEvent{}, false
	}
	if evt.Record == nil ||
		evt.Record.ID() == "" ||
		evt.Record.CollectionID() == "" ||
		evt.Record.CollectionName() == "" {
		return RealtimeEvent{}, false
	}
	return evt, true
}
