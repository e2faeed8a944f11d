// Package setting stores site settings as text while exposing them as typed
// values. Each key has a fixed kind; parsing and encoding go through that kind.
package setting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/irsalhamdi/coaching-portal/validate"
)

type Kind int

const (
	KindString Kind = iota + 1
	KindBool
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	}
	return "unknown"
}

var ErrUnknownKey = errors.New("unknown setting")

// Value holds exactly one of a string, bool or int, selected by its kind.
type Value struct {
	kind Kind
	str  string
	b    bool
	i    int64
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }
func (v Value) Bool() (bool, bool)  { return v.b, v.kind == KindBool }
func (v Value) Int() (int64, bool)  { return v.i, v.kind == KindInt }

// Encode is the storage form of v.
func (v Value) Encode() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	}
	return v.str
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindString:
		return json.Marshal(v.str)
	}
	return []byte("null"), nil
}

type Key struct {
	Name    string
	Kind    Kind
	Default Value
	check   func(Value) error
}

var keys = map[string]Key{
	"site_name": {
		Name:    "site_name",
		Kind:    KindString,
		Default: String("Coaching Portal"),
		check: func(v Value) error {
			return validate.Var(v.str, "required,max=120")
		},
	},
	"contact_email": {
		Name:    "contact_email",
		Kind:    KindString,
		Default: String(""),
		check: func(v Value) error {
			return validate.Var(v.str, "omitempty,email")
		},
	},
	"maintenance_mode": {
		Name:    "maintenance_mode",
		Kind:    KindBool,
		Default: Bool(false),
	},
	"trial_days": {
		Name:    "trial_days",
		Kind:    KindInt,
		Default: Int(0),
		check: func(v Value) error {
			if v.i < 0 {
				return errors.New("trial_days must be 0 or greater")
			}
			return nil
		},
	},
}

func Lookup(name string) (Key, error) {
	k, ok := keys[name]
	if !ok {
		return Key{}, fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	return k, nil
}

// Keys returns every known key sorted by name.
func Keys() []Key {
	ks := make([]Key, 0, len(keys))
	for _, k := range keys {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i].Name < ks[j].Name })
	return ks
}

// Parse decodes the storage form of a value for k.
func (k Key) Parse(raw string) (Value, error) {
	var v Value
	switch k.Kind {
	case KindString:
		v = String(raw)
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%s: expected a bool, got %q", k.Name, raw)
		}
		v = Bool(b)
	case KindInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%s: expected an integer, got %q", k.Name, raw)
		}
		v = Int(i)
	default:
		return Value{}, fmt.Errorf("%s: unsupported kind %s", k.Name, k.Kind)
	}
	return v, k.validate(v)
}

// FromJSON decodes a request value for k. The JSON type must match the kind.
func (k Key) FromJSON(raw json.RawMessage) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var x any
	if err := dec.Decode(&x); err != nil {
		return Value{}, fmt.Errorf("%s: %w", k.Name, err)
	}

	var v Value
	switch k.Kind {
	case KindString:
		s, ok := x.(string)
		if !ok {
			return Value{}, fmt.Errorf("%s: expected a string", k.Name)
		}
		v = String(s)
	case KindBool:
		b, ok := x.(bool)
		if !ok {
			return Value{}, fmt.Errorf("%s: expected a bool", k.Name)
		}
		v = Bool(b)
	case KindInt:
		n, ok := x.(json.Number)
		if !ok {
			return Value{}, fmt.Errorf("%s: expected an integer", k.Name)
		}
		i, err := n.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("%s: expected an integer, got %s", k.Name, n)
		}
		v = Int(i)
	default:
		return Value{}, fmt.Errorf("%s: unsupported kind %s", k.Name, k.Kind)
	}
	return v, k.validate(v)
}

func (k Key) validate(v Value) error {
	if k.check == nil {
		return nil
	}
	if err := k.check(v); err != nil {
		return fmt.Errorf("%s: %w", k.Name, err)
	}
	return nil
}

type Setting struct {
	Key       string     `json:"key"`
	Value     Value      `json:"value"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type SettingUp struct {
	Value json.RawMessage `json:"value" validate:"required"`
}
