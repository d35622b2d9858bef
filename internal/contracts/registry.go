package contracts

import (
	"encoding/json"
	"fmt"
)

// registry maps each wire discriminator to a constructor for its concrete
// event type. Decoding an unregistered kind is a permanent failure for the
// caller: there is no handler that could ever process it.
var registry = map[Kind]func() Event{
	KindTaskCreated:   func() Event { return &TaskCreated{} },
	KindTaskStarted:   func() Event { return &TaskStarted{} },
	KindTaskProgress:  func() Event { return &TaskProgressUpdated{} },
	KindTaskCompleted: func() Event { return &TaskCompleted{} },
	KindTaskFailed:    func() Event { return &TaskFailed{} },
	KindTaskCancelled: func() Event { return &TaskCancelled{} },
}

// KnownKind reports whether the discriminator maps to a registered event type.
func KnownKind(k Kind) bool {
	_, ok := registry[k]
	return ok
}

// Encode serializes an event to its wire payload.
func Encode(evt Event) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", evt.Kind(), err)
	}
	return payload, nil
}

// Decode reconstructs a concrete event from its discriminator and payload.
func Decode(kind Kind, payload []byte) (Event, error) {
	newEvent, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	evt := newEvent()
	if err := json.Unmarshal(payload, evt); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", kind, err)
	}
	return evt, nil
}
