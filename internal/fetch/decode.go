package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Object is a JSON object decoded one named field at a time, so that schema
// violations can be reported with the record and field they concern.
type Object struct {
	record string
	fields map[string]json.RawMessage
	seen   map[string]bool
}

// DecodeObject parses raw as a JSON object. record names the object in errors.
func DecodeObject(record string, raw []byte) (*Object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &DecodeError{Record: record, Err: err}
	}
	if fields == nil {
		return nil, &DecodeError{Record: record, Err: fmt.Errorf("%w: null record", ErrInvalidField)}
	}
	return &Object{record: record, fields: fields, seen: make(map[string]bool)}, nil
}

// Required decodes field name into dst. A missing or null field is an error.
func (o *Object) Required(name string, dst any) error {
	ok, err := o.Optional(name, dst)
	if err != nil {
		return err
	}
	if !ok {
		return &DecodeError{Record: o.record, Field: name, Err: ErrMissingField}
	}
	return nil
}

// Optional decodes field name into dst if present and not null. It reports
// whether dst was written.
func (o *Object) Optional(name string, dst any) (bool, error) {
	o.seen[name] = true
	raw, ok := o.fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, &DecodeError{Record: o.record, Field: name, Err: fmt.Errorf("%w: %v", ErrInvalidField, err)}
	}
	return true, nil
}

// Known marks fields as accepted without decoding them.
func (o *Object) Known(names ...string) {
	for _, n := range names {
		o.seen[n] = true
	}
}

// Strict fails on the first field (in lexical order) that was neither decoded
// nor marked Known.
func (o *Object) Strict() error {
	var unknown []string
	for name := range o.fields {
		if !o.seen[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &DecodeError{Record: o.record, Field: unknown[0], Err: ErrUnknownField}
}

// EachMember walks a JSON object keyed by record id, in document order.
func EachMember(body []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return &DecodeError{Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return &DecodeError{Err: fmt.Errorf("%w: expected an object, got %v", ErrInvalidField, tok)}
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &DecodeError{Err: err}
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return &DecodeError{Record: key, Err: err}
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
