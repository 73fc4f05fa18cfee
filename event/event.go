// Package event defines the Event envelope routed between Actors.
//
// An Event wraps a CloudEvents 1.0 event: the CloudEvents id is the Event's
// immutable identifier, the CloudEvents type carries the service routing
// tag, the CloudEvents extensions map is the string-keyed header map, and
// the CloudEvents data holds the mutable, arbitrarily-shaped payload.
package event

import (
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2/event"
	jsoniter "github.com/json-iterator/go"
	"github.com/google/uuid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const sourceDefault = "relaykit"

// Event is an addressable message carrying an identifier, a mutable data
// payload, a service tag, and a header map.
type Event struct {
	raw cloudevents.Event
}

// New constructs an Event with a fresh identifier. headers may be nil.
func New(service string, data interface{}, headers map[string]string) *Event {
	raw := cloudevents.New()
	raw.SetID(newID())
	raw.SetSource(sourceDefault)
	raw.SetType(service)
	raw.SetTime(time.Now())
	raw.SetSpecVersion(cloudevents.CloudEventsVersionV1)

	for k, v := range headers {
		raw.SetExtension(k, v)
	}

	e := &Event{raw: raw}
	if data != nil {
		_ = e.SetData(data)
	}
	return e
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ID returns the Event's immutable identifier.
func (e *Event) ID() string { return e.raw.ID() }

// Service returns the routing/dispatch tag.
func (e *Event) Service() string { return e.raw.Type() }

// SetService sets the routing/dispatch tag.
func (e *Event) SetService(service string) { e.raw.SetType(service) }

// Data unmarshals the payload into out. out must be a pointer.
func (e *Event) Data(out interface{}) error {
	if len(e.raw.Data()) == 0 {
		return nil
	}
	return json.Unmarshal(e.raw.Data(), out)
}

// RawData returns the undecoded JSON payload bytes.
func (e *Event) RawData() []byte { return e.raw.Data() }

// SetData replaces the payload, marshaling data to JSON.
func (e *Event) SetData(data interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return e.raw.SetData("application/json", b)
}

// Get returns a header value and whether it was present.
func (e *Event) Get(key string) (string, bool) {
	v := e.raw.Extensions()[key]
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set assigns a header value.
func (e *Event) Set(key, value string) {
	e.raw.SetExtension(key, value)
}

// Headers returns a copy of the header map.
func (e *Event) Headers() map[string]string {
	out := make(map[string]string, len(e.raw.Extensions()))
	for k, v := range e.raw.Extensions() {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Timestamp returns the Event's creation time.
func (e *Event) Timestamp() time.Time { return e.raw.Time() }

// Copy deep-copies the Event. When preserveID is true (the fan-out case,
// where exactly one recipient may hold the original and the rest receive
// copies) the copy keeps the same identifier; otherwise a fresh one is
// minted. The payload is held as encoded JSON bytes, and the clone gets its
// own copy of those bytes, so no per-type Clone is needed.
func (e *Event) Copy(preserveID bool) *Event {
	clone := e.raw.Clone()
	if !preserveID {
		clone.SetID(newID())
	}
	return &Event{raw: clone}
}

// RestoreData overwrites this Event's payload with snapshot's raw bytes,
// without re-marshaling. Used when a downstream Put fails with "full": the
// consume call may have partially mutated the Event's data before failing,
// so the Actor restores the pre-consume snapshot before rescuing the Event
// back to its origin queue for retry.
func (e *Event) RestoreData(snapshot *Event) error {
	return e.raw.SetData("application/json", snapshot.RawData())
}

// Equal reports whether two Events carry byte-identical JSON payloads.
// Used by tests to assert deep-copy equality without asserting identity.
func (e *Event) Equal(other *Event) bool {
	return string(e.raw.Data()) == string(other.raw.Data())
}
