// Package entity defines the persisted-record contract shared by every
// collection: identity, timestamps and the soft-delete marker wrapped around a
// plain data struct.
package entity

import (
	"encoding/json"
	"fmt"
)

// Stored keys owned by the record itself rather than by its data struct.
const (
	KeyID       = "id"
	KeyCreated  = "created"
	KeyUpdated  = "updated"
	KeyToDelete = "toDelete"
)

// ToDelete marks a record for removal. Status true means flagged and
// recoverable; false means confirmed and eligible for hard deletion.
type ToDelete struct {
	Status    bool   `json:"status"`
	UserEmail string `json:"userEmail,omitempty"`
}

func (t *ToDelete) toMap() map[string]any {
	m := map[string]any{"status": t.Status}
	if t.UserEmail != "" {
		m["userEmail"] = t.UserEmail
	}
	return m
}

// Fields is a partial document used by merge updates. Only the keys present
// are written; a nil value clears the stored field.
type Fields map[string]any

// Defaulter is implemented by data structs that fill missing fields when a
// record is built.
type Defaulter interface {
	Defaults()
}

// Record is a persisted document: the store-assigned ID, the bookkeeping
// fields and the collection-specific data.
type Record[T any] struct {
	ID       string
	Created  string
	Updated  string
	ToDelete *ToDelete
	Data     T
}

// New builds an unsaved record with fresh timestamps and defaults applied.
func New[T any](data T) *Record[T] {
	now := NowISOString()
	r := &Record[T]{Created: now, Updated: now, Data: data}
	r.applyDefaults()
	return r
}

// FromMap builds a record from a stored document. Unknown keys are ignored,
// missing timestamps default to now and missing data fields get the data
// struct's defaults.
func FromMap[T any](m map[string]any) (*Record[T], error) {
	r := &Record[T]{}
	if err := r.loadMap(m); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record[T]) loadMap(m map[string]any) error {
	if id, ok := m[KeyID].(string); ok {
		r.ID = id
	}
	r.Created, _ = m[KeyCreated].(string)
	r.Updated, _ = m[KeyUpdated].(string)
	now := NowISOString()
	if r.Created == "" {
		r.Created = now
	}
	if r.Updated == "" {
		r.Updated = now
	}
	r.ToDelete = nil
	if td, ok := m[KeyToDelete].(map[string]any); ok {
		r.ToDelete = &ToDelete{}
		if err := decode(td, r.ToDelete); err != nil {
			return fmt.Errorf("decode toDelete: %w", err)
		}
	}
	if err := decode(m, &r.Data); err != nil {
		return fmt.Errorf("decode %T: %w", r.Data, err)
	}
	r.applyDefaults()
	return nil
}

func (r *Record[T]) applyDefaults() {
	if d, ok := any(&r.Data).(Defaulter); ok {
		d.Defaults()
	}
}

// ToMap returns the document to persist. The ID is never included and falsy
// top-level fields are dropped (see Compact). Nested records are converted
// through their own ToMap.
func (r *Record[T]) ToMap() map[string]any {
	m, err := Normalize(r.Data)
	if err != nil {
		// data structs only hold JSON-encodable values
		panic(fmt.Sprintf("entity: encode %T: %v", r.Data, err))
	}
	m[KeyCreated] = r.Created
	m[KeyUpdated] = r.Updated
	if r.ToDelete != nil {
		m[KeyToDelete] = r.ToDelete.toMap()
	} else {
		m[KeyToDelete] = nil
	}
	delete(m, KeyID)
	return Compact(m)
}

// Clone returns an independent deep copy of the record.
func (r *Record[T]) Clone() *Record[T] {
	c, err := FromMap[T](r.ToMap())
	if err != nil {
		panic(fmt.Sprintf("entity: clone %T: %v", r.Data, err))
	}
	c.ID = r.ID
	c.Created = r.Created
	c.Updated = r.Updated
	return c
}

// MarshalJSON renders the record as its stored map plus the id.
func (r *Record[T]) MarshalJSON() ([]byte, error) {
	m := r.ToMap()
	if r.ID != "" {
		m[KeyID] = r.ID
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts the same shape MarshalJSON produces.
func (r *Record[T]) UnmarshalJSON(b []byte) error {
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	return r.loadMap(m)
}

// IsMarked reports whether the record carries a soft-delete marker.
func (r *Record[T]) IsMarked() bool {
	return r.ToDelete != nil
}
