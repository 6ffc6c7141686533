package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Sentinel values of the wire protocol. The server omits fields that did not
// change; for integers it may also send FieldAbsent explicitly because the
// upstream serializer has no way to drop a key from a fixed-layout row.
const (
	// ServerKeyUnassigned marks an entity the server has not assigned a key
	// to yet. It is a valid domain value ("known-absent").
	ServerKeyUnassigned int64 = -1

	// FieldAbsent marks an integer field that is not present in a partial
	// payload. Distinct from ServerKeyUnassigned: -1 travels through a merge,
	// -2 never does.
	FieldAbsent int64 = -2
)

// OptInt is a presence-tagged integer field of a partial payload.
// A missing JSON key or the FieldAbsent wire sentinel both decode to an
// unset value; every other value, including -1, decodes as present.
type OptInt struct {
	Set   bool
	Value int64
}

// PresentInt returns a set OptInt.
func PresentInt(v int64) OptInt {
	return OptInt{Set: true, Value: v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptInt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*o = OptInt{}
		return nil
	}
	v, err := strconv.ParseInt(string(bytes.Trim(data, `"`)), 10, 64)
	if err != nil {
		return err
	}
	if v == FieldAbsent {
		*o = OptInt{}
		return nil
	}
	*o = OptInt{Set: true, Value: v}
	return nil
}

// MarshalJSON implements json.Marshaler. Unset fields serialize as the wire
// sentinel so a round trip through the upstream API stays lossless.
func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return json.Marshal(FieldAbsent)
	}
	return json.Marshal(o.Value)
}

// Or returns the payload value when present, otherwise the existing one.
func (o OptInt) Or(existing int64) int64 {
	if o.Set {
		return o.Value
	}
	return existing
}

// OptString is a presence-tagged string field of a partial payload.
// The wire protocol cannot distinguish "absent" from "empty": both decode to
// an unset value, so a merge never clears a string. Callers that need a true
// clear must use an explicit clear operation, not the merge path.
type OptString struct {
	Set   bool
	Value string
}

// PresentString returns a set OptString.
func PresentString(v string) OptString {
	return OptString{Set: v != "", Value: v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*o = OptString{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*o = OptString{}
		return nil
	}
	*o = OptString{Set: true, Value: s}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptString) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// Or returns the payload value when present, otherwise the existing one.
func (o OptString) Or(existing string) string {
	if o.Set {
		return o.Value
	}
	return existing
}

// OptFloat is a presence-tagged float field of a partial payload. Floats use
// the null-means-absent convention: the upstream serializer emits null for
// unchanged monetary fields.
type OptFloat struct {
	Set   bool
	Value float64
}

// PresentFloat returns a set OptFloat.
func PresentFloat(v float64) OptFloat {
	return OptFloat{Set: true, Value: v}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*o = OptFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = OptFloat{Set: true, Value: v}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return json.Marshal(nil)
	}
	return json.Marshal(o.Value)
}

// Or returns the payload value when present, otherwise the existing one.
func (o OptFloat) Or(existing float64) float64 {
	if o.Set {
		return o.Value
	}
	return existing
}
