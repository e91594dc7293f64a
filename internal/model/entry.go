// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the sync engine,
// the recording controller, the renderers and the reference server.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// =============================================================================
// LOG ENTRY
// =============================================================================

// Well-known entry type tags produced by the agent backend.
const (
	TypeUser      = "user"
	TypeAgent     = "agent"
	TypeResponse  = "response"
	TypeTool      = "tool"
	TypeCodeExe   = "code_exe"
	TypeWarning   = "warning"
	TypeRateLimit = "rate_limit"
	TypeError     = "error"
	TypeInfo      = "info"
	TypeUtil      = "util"
	TypeHint      = "hint"
	TypeAdhoc     = "adhoc"
)

// LogEntry is one unit of remote log content. It is immutable once
// received and identified by Seq, which is unique within a log session.
type LogEntry struct {
	Seq     int     `json:"no"`
	Type    string  `json:"type"`
	Heading string  `json:"heading"`
	Content Payload `json:"content"`
	KVPs    KVPairs `json:"kvps"`
}

// String returns a short description for logging.
func (e LogEntry) String() string {
	return fmt.Sprintf("#%d %s %q", e.Seq, e.Type, e.Heading)
}

// =============================================================================
// PAYLOAD
// =============================================================================

// Payload is an entry's content exactly as received. JSON strings are
// exposed as text; any other JSON value is kept verbatim.
type Payload struct {
	raw json.RawMessage
}

// Text wraps a plain string as a payload.
func Text(s string) Payload {
	b, _ := json.Marshal(s)
	return Payload{raw: b}
}

// RawPayload wraps an arbitrary JSON value.
func RawPayload(raw json.RawMessage) Payload {
	return Payload{raw: append(json.RawMessage(nil), raw...)}
}

// IsText reports whether the payload is a JSON string.
func (p Payload) IsText() bool {
	b := bytes.TrimSpace(p.raw)
	return len(b) > 0 && b[0] == '"'
}

// IsEmpty reports whether there is no content at all.
func (p Payload) IsEmpty() bool {
	b := bytes.TrimSpace(p.raw)
	return len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`))
}

// Raw returns the verbatim JSON value.
func (p Payload) Raw() json.RawMessage {
	return p.raw
}

// String returns the text of a string payload, or the compact JSON of
// anything else. Empty and null payloads yield "".
func (p Payload) String() string {
	b := bytes.TrimSpace(p.raw)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return ""
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return s
		}
	}
	return string(b)
}

// MarshalJSON implements json.Marshaler.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p.raw) == 0 {
		return []byte("null"), nil
	}
	return p.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

// =============================================================================
// ORDERED KEY/VALUE PAIRS
// =============================================================================

// KV is one key/value pair.
type KV struct {
	Key   string
	Value any
}

// KVPairs is an ordered string-keyed mapping. JSON objects decode into
// it with their key order preserved; a repeated key keeps its first
// position and its last value.
type KVPairs []KV

// Get returns the value stored under key.
func (p KVPairs) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (p KVPairs) Keys() []string {
	keys := make([]string, len(p))
	for i, kv := range p {
		keys[i] = kv.Key
	}
	return keys
}

// Set replaces the value for key, or appends the pair when key is new.
func (p *KVPairs) Set(key string, value any) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, KV{Key: key, Value: value})
}

// Without returns a copy of the pairs with key removed.
func (p KVPairs) Without(key string) KVPairs {
	out := make(KVPairs, 0, len(p))
	for _, kv := range p {
		if kv.Key != key {
			out = append(out, kv)
		}
	}
	return out
}

// MarshalJSON encodes the pairs as a JSON object in order.
func (p KVPairs) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("kvps[%s]: %w", kv.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object (or null) preserving key order.
func (p *KVPairs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("kvps: expected object, got %v", tok)
	}

	out := make(KVPairs, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("kvps: expected string key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("kvps[%s]: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}
