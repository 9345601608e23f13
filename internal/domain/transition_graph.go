package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// TransitionGraph maps a status to the statuses reachable from it. Keys keep
// their insertion order so validation and serialization are deterministic.
// The zero value is an empty graph ready for use.
type TransitionGraph struct {
	keys  []TicketStatus
	edges map[TicketStatus][]TicketStatus
}

// NewTransitionGraph returns an empty graph.
func NewTransitionGraph() TransitionGraph {
	return TransitionGraph{edges: make(map[TicketStatus][]TicketStatus)}
}

// Set replaces the targets of from. Duplicate targets are collapsed and a key
// that already exists keeps its original position.
func (g *TransitionGraph) Set(from TicketStatus, to ...TicketStatus) {
	if g.edges == nil {
		g.edges = make(map[TicketStatus][]TicketStatus)
	}
	if _, exists := g.edges[from]; !exists {
		g.keys = append(g.keys, from)
	}
	targets := make([]TicketStatus, 0, len(to))
	seen := make(map[TicketStatus]struct{}, len(to))
	for _, next := range to {
		if _, dup := seen[next]; dup {
			continue
		}
		seen[next] = struct{}{}
		targets = append(targets, next)
	}
	g.edges[from] = targets
}

// Next returns the targets of from and whether from has an entry at all.
func (g *TransitionGraph) Next(from TicketStatus) ([]TicketStatus, bool) {
	targets, ok := g.edges[from]
	if !ok {
		return nil, false
	}
	return append([]TicketStatus(nil), targets...), true
}

// HasKey reports whether from has an entry.
func (g *TransitionGraph) HasKey(from TicketStatus) bool {
	_, ok := g.edges[from]
	return ok
}

// Keys returns the source statuses in insertion order.
func (g *TransitionGraph) Keys() []TicketStatus {
	return append([]TicketStatus(nil), g.keys...)
}

// Len returns the number of source statuses.
func (g *TransitionGraph) Len() int {
	return len(g.keys)
}

// States returns every status appearing as a key or a target, in first-seen order.
func (g *TransitionGraph) States() []TicketStatus {
	seen := make(map[TicketStatus]struct{})
	var states []TicketStatus
	add := func(s TicketStatus) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		states = append(states, s)
	}
	for _, key := range g.keys {
		add(key)
		for _, next := range g.edges[key] {
			add(next)
		}
	}
	return states
}

// Clone returns a deep copy.
func (g *TransitionGraph) Clone() TransitionGraph {
	out := NewTransitionGraph()
	for _, key := range g.keys {
		out.Set(key, g.edges[key]...)
	}
	return out
}

// MarshalJSON encodes the graph as an object whose keys follow insertion order.
func (g TransitionGraph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range g.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(key))
		if err != nil {
			return nil, err
		}
		targets := g.edges[key]
		if targets == nil {
			targets = []TicketStatus{}
		}
		v, err := json.Marshal(targets)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of status to status list, keeping key order.
func (g *TransitionGraph) UnmarshalJSON(data []byte) error {
	decoded := NewTransitionGraph()
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var targets []TicketStatus
		if err := json.Unmarshal(raw, &targets); err != nil {
			return fmt.Errorf("transitions[%s]: %w", key, err)
		}
		decoded.Set(TicketStatus(key), targets...)
		return nil
	})
	if err != nil {
		return err
	}
	*g = decoded
	return nil
}

// RequiredFields maps a status to the ticket fields that must be non-empty
// before a ticket may enter it. Keys keep their insertion order.
type RequiredFields struct {
	keys   []TicketStatus
	fields map[TicketStatus][]string
}

// NewRequiredFields returns an empty mapping.
func NewRequiredFields() RequiredFields {
	return RequiredFields{fields: make(map[TicketStatus][]string)}
}

// Set replaces the field list for status.
func (r *RequiredFields) Set(status TicketStatus, fields ...string) {
	if r.fields == nil {
		r.fields = make(map[TicketStatus][]string)
	}
	if _, exists := r.fields[status]; !exists {
		r.keys = append(r.keys, status)
	}
	r.fields[status] = append([]string{}, fields...)
}

// For returns the fields required before entering status.
func (r *RequiredFields) For(status TicketStatus) []string {
	return append([]string(nil), r.fields[status]...)
}

// Keys returns the statuses in insertion order.
func (r *RequiredFields) Keys() []TicketStatus {
	return append([]TicketStatus(nil), r.keys...)
}

// Len returns the number of statuses carrying requirements.
func (r *RequiredFields) Len() int {
	return len(r.keys)
}

// Clone returns a deep copy.
func (r *RequiredFields) Clone() RequiredFields {
	out := NewRequiredFields()
	for _, key := range r.keys {
		out.Set(key, r.fields[key]...)
	}
	return out
}

// MarshalJSON encodes the mapping as an object whose keys follow insertion order.
func (r RequiredFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(key))
		if err != nil {
			return nil, err
		}
		fields := r.fields[key]
		if fields == nil {
			fields = []string{}
		}
		v, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of status to field list, keeping key order.
func (r *RequiredFields) UnmarshalJSON(data []byte) error {
	decoded := NewRequiredFields()
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var fields []string
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("requiredFields[%s]: %w", key, err)
		}
		decoded.Set(TicketStatus(key), fields...)
		return nil
	})
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

// decodeOrderedObject walks the members of a JSON object in document order.
// A JSON null decodes to nothing.
func decodeOrderedObject(data []byte, member func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("expected a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := member(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
