// Package value provides the dynamic value type for the template engine.
//
// Template data is a tree of dynamically typed values. Besides the usual
// scalars, sequences and maps, a Value can hold work that completes later:
// a Deferred (a single result) or a Stream (zero or more items followed by
// an end or error event). The engine dispatches on the kind of a value to
// decide whether it writes it, iterates it, or opens an async branch for it.
//
// # Core Concepts
//
// Values are created from Go data using constructor functions like FromInt,
// FromString, FromSlice, or reflectively with FromAny:
//
//	ctx := value.FromAny(map[string]any{
//	    "name":  "World",
//	    "items": []string{"a", "b"},
//	    "later": value.Go(fetchSomething),
//	})
//
// # Kinds
//
// The set of kinds is closed:
//   - Undefined: a missing value
//   - None: an explicit null
//   - Bool, Number, String
//   - Seq: ordered sequences
//   - Map: string keyed mappings
//   - Plain: custom objects with attribute access
//   - Callable: functions invoked by the engine
//   - Deferred: a result that is not available yet
//   - Stream: a push-stream of items
package value

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// State is the interface the engine hands to callables.
//
// It lets a Callable look at the render that invoked it without the value
// package depending on the engine.
type State interface {
	// Context returns the Go context of the render.
	Context() context.Context

	// Lookup resolves a dotted path against the current scope.
	Lookup(path string) Value

	// Name returns the name of the template being rendered.
	Name() string
}

// Callable is implemented by function values placed into template data.
//
// The engine calls it with the value that contained the function (or the
// current scope head) as this. The result is then rendered like any other
// value, so a Callable may return a Deferred or a Stream to go async.
type Callable interface {
	Call(state State, this Value) (Value, error)
}

// CallableFunc adapts an ordinary function to the Callable interface.
type CallableFunc func(state State, this Value) (Value, error)

// Call calls f(state, this).
func (f CallableFunc) Call(state State, this Value) (Value, error) {
	return f(state, this)
}

// Object is an interface for custom objects with attribute access.
//
// Types that implement Object expose attributes to dotted path lookups:
// {user.name} calls GetAttr("name") on the object stored under user.
type Object interface {
	// GetAttr returns the value of the named attribute, or Undefined().
	GetAttr(name string) Value
}

// MapObject is an Object that can enumerate its keys.
type MapObject interface {
	Object
	Keys() []string
}

// ValueKind describes the type of a Value.
type ValueKind int

const (
	// KindUndefined represents a missing value. It renders as nothing.
	KindUndefined ValueKind = iota

	// KindNone represents an explicit null.
	KindNone

	// KindBool represents true or false.
	KindBool

	// KindNumber represents an int64 or float64.
	KindNumber

	// KindString represents text, optionally marked safe from escaping.
	KindString

	// KindSeq represents an ordered sequence. Sections iterate sequences.
	KindSeq

	// KindMap represents a string keyed map.
	KindMap

	// KindPlain represents a custom Object.
	KindPlain

	// KindCallable represents a function the engine invokes.
	KindCallable

	// KindDeferred represents a value that resolves later.
	KindDeferred

	// KindStream represents a push-stream of values.
	KindStream
)

func (k ValueKind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "map"
	case KindPlain:
		return "plain object"
	case KindCallable:
		return "callable"
	case KindDeferred:
		return "deferred"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Value represents a dynamically typed value in the template engine.
//
// The zero Value is Undefined. Scalars are immutable; sequences and maps
// reference the Go slice or map they were created from.
type Value struct {
	data any
}

// internal marker types for special values
type noneType struct{}

// safeString is a string that is not escaped on output.
type safeString string

// Undefined returns the undefined value.
func Undefined() Value {
	return Value{}
}

// None returns the none/null value.
func None() Value {
	return Value{data: noneType{}}
}

// True returns the boolean true value.
func True() Value {
	return Value{data: true}
}

// False returns the boolean false value.
func False() Value {
	return Value{data: false}
}

// FromBool creates a Value from a boolean.
func FromBool(v bool) Value {
	return Value{data: v}
}

// FromInt creates a Value from an int64.
func FromInt(v int64) Value {
	return Value{data: v}
}

// FromFloat creates a Value from a float64.
func FromFloat(v float64) Value {
	return Value{data: v}
}

// FromString creates a Value from a string.
//
// The string is escaped on output unless the |s filter is applied.
func FromString(v string) Value {
	return Value{data: v}
}

// FromSafeString creates a string Value that is never escaped again.
//
// The escaping filters return safe strings, so a value escaped explicitly
// with |h is not escaped a second time by the default escaping.
func FromSafeString(v string) Value {
	return Value{data: safeString(v)}
}

// FromSlice creates a sequence Value.
func FromSlice(v []Value) Value {
	return Value{data: v}
}

// FromMap creates a map Value.
func FromMap(v map[string]Value) Value {
	return Value{data: v}
}

// FromCallable creates a Value from a Callable.
func FromCallable(c Callable) Value {
	return Value{data: c}
}

// FromObject creates a Value from an Object.
func FromObject(o Object) Value {
	return Value{data: o}
}

// FromDeferred creates a Value from a Deferred.
func FromDeferred(d *Deferred) Value {
	return Value{data: d}
}

// FromStream creates a Value from a Stream.
func FromStream(s *Stream) Value {
	return Value{data: s}
}

// FromError creates the value pushed as scope when an error body renders.
//
// The map exposes the error text under "message".
func FromError(err error) Value {
	if err == nil {
		return Undefined()
	}
	return FromMap(map[string]Value{
		"message": FromString(err.Error()),
	})
}

// FromAny creates a Value from any Go value using reflection.
//
// FromAny converts Go types to their corresponding Value kinds:
//   - nil -> None()
//   - bool, integers, floats, strings
//   - slices/arrays -> sequences (recursively)
//   - maps -> maps (keys formatted with %v)
//   - structs -> maps (exported fields, json tags honored)
//   - *Deferred, *Stream, Callable, Object -> the matching kind
//   - pointers/interfaces -> dereferenced
//
// Whole-number floats become integers, which matches JSON decoded data.
func FromAny(v any) Value {
	switch d := v.(type) {
	case nil:
		return None()
	case Value:
		return d
	case *Deferred:
		return FromDeferred(d)
	case *Stream:
		return FromStream(d)
	case Callable:
		return FromCallable(d)
	case Object:
		return FromObject(d)
	case error:
		return FromError(d)
	}
	return fromReflectValue(reflect.ValueOf(v))
}

func fromReflectValue(rv reflect.Value) Value {
	if !rv.IsValid() {
		return None()
	}
	if rv.CanInterface() {
		switch d := rv.Interface().(type) {
		case Value:
			return d
		case *Deferred:
			return FromDeferred(d)
		case *Stream:
			return FromStream(d)
		case Callable:
			return FromCallable(d)
		case Object:
			return FromObject(d)
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		return FromBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FromInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FromInt(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return FromInt(int64(f))
		}
		return FromFloat(f)
	case reflect.String:
		return FromString(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return None()
		}
		slice := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			slice[i] = fromReflectValue(rv.Index(i))
		}
		return FromSlice(slice)
	case reflect.Map:
		if rv.IsNil() {
			return None()
		}
		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			var key string
			if k.Kind() == reflect.String {
				key = k.String()
			} else {
				key = fmt.Sprintf("%v", k.Interface())
			}
			m[key] = fromReflectValue(iter.Value())
		}
		return FromMap(m)
	case reflect.Struct:
		return fromStruct(rv)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return None()
		}
		return fromReflectValue(rv.Elem())
	default:
		return FromString(fmt.Sprintf("%v", rv.Interface()))
	}
}

func fromStruct(rv reflect.Value) Value {
	t := rv.Type()
	m := make(map[string]Value)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
		}
		m[name] = fromReflectValue(rv.Field(i))
	}
	return FromMap(m)
}

// Kind returns the kind of value.
func (v Value) Kind() ValueKind {
	switch v.data.(type) {
	case nil:
		return KindUndefined
	case noneType:
		return KindNone
	case bool:
		return KindBool
	case int64, float64:
		return KindNumber
	case string, safeString:
		return KindString
	case []Value:
		return KindSeq
	case map[string]Value:
		return KindMap
	case *Deferred:
		return KindDeferred
	case *Stream:
		return KindStream
	case Callable:
		return KindCallable
	default:
		return KindPlain
	}
}

// IsUndefined returns true if the value is undefined.
func (v Value) IsUndefined() bool {
	return v.Kind() == KindUndefined
}

// IsNone returns true if the value is none.
func (v Value) IsNone() bool {
	_, ok := v.data.(noneType)
	return ok
}

// IsStructured reports whether the value has members a path lookup can
// descend into: maps, sequences and objects.
func (v Value) IsStructured() bool {
	switch v.Kind() {
	case KindMap, KindSeq, KindPlain:
		return true
	default:
		return false
	}
}

// IsTrue returns the truthiness of the value.
//
// Undefined, none, false, zero, NaN and the empty string are false. Every
// sequence, map, object, function, deferred and stream is true, even when
// it is empty.
func (v Value) IsTrue() bool {
	switch d := v.data.(type) {
	case nil, noneType:
		return false
	case bool:
		return d
	case int64:
		return d != 0
	case float64:
		return d != 0 && !math.IsNaN(d)
	case string:
		return d != ""
	case safeString:
		return d != ""
	default:
		return true
	}
}

// IsZero reports whether the value is the number zero.
func (v Value) IsZero() bool {
	switch d := v.data.(type) {
	case int64:
		return d == 0
	case float64:
		return d == 0
	default:
		return false
	}
}

// IsEmpty reports whether the value renders as nothing.
//
// Zero is not empty. An empty sequence is empty. Everything else is empty
// exactly when it is not true, so maps and objects are never empty.
func (v Value) IsEmpty() bool {
	if v.IsZero() {
		return false
	}
	if s, ok := v.data.([]Value); ok {
		return len(s) == 0
	}
	return !v.IsTrue()
}

// IsSafe returns true if this is a safe string.
func (v Value) IsSafe() bool {
	_, ok := v.data.(safeString)
	return ok
}

// String returns the text written for the value.
//
// Sequences join their items with commas and maps render as JSON.
func (v Value) String() string {
	switch d := v.data.(type) {
	case nil:
		return ""
	case noneType:
		return "null"
	case bool:
		return strconv.FormatBool(d)
	case int64:
		return strconv.FormatInt(d, 10)
	case float64:
		return formatFloat(d)
	case string:
		return d
	case safeString:
		return string(d)
	case []Value:
		parts := make([]string, len(d))
		for i, item := range d {
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	case map[string]Value:
		out, err := json.Marshal(ToNative(v))
		if err != nil {
			return ""
		}
		return string(out)
	case *Deferred:
		return "<deferred>"
	case *Stream:
		return "<stream>"
	case fmt.Stringer:
		return d.String()
	default:
		return fmt.Sprintf("%v", d)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Repr returns a debug representation of the value.
func (v Value) Repr() string {
	switch d := v.data.(type) {
	case nil:
		return "undefined"
	case string:
		return strconv.Quote(d)
	case safeString:
		return strconv.Quote(string(d))
	case []Value:
		parts := make([]string, len(d))
		for i, item := range d {
			parts[i] = item.Repr()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]Value:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, d[k].Repr())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return v.String()
	}
}

// AsString returns the string value if it is one.
func (v Value) AsString() (string, bool) {
	switch d := v.data.(type) {
	case string:
		return d, true
	case safeString:
		return string(d), true
	default:
		return "", false
	}
}

// AsInt returns the integer value if it is one.
func (v Value) AsInt() (int64, bool) {
	switch d := v.data.(type) {
	case int64:
		return d, true
	case float64:
		if d == math.Trunc(d) {
			return int64(d), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsFloat returns the float value if it is numeric.
func (v Value) AsFloat() (float64, bool) {
	switch d := v.data.(type) {
	case int64:
		return float64(d), true
	case float64:
		return d, true
	default:
		return 0, false
	}
}

// AsBool returns the boolean value if it is one.
func (v Value) AsBool() (bool, bool) {
	b, ok := v.data.(bool)
	return b, ok
}

// AsSlice returns the slice if it is one.
func (v Value) AsSlice() ([]Value, bool) {
	s, ok := v.data.([]Value)
	return s, ok
}

// AsMap returns the map if it is one.
func (v Value) AsMap() (map[string]Value, bool) {
	switch d := v.data.(type) {
	case map[string]Value:
		return d, true
	case MapObject:
		keys := d.Keys()
		m := make(map[string]Value, len(keys))
		for _, k := range keys {
			m[k] = d.GetAttr(k)
		}
		return m, true
	default:
		return nil, false
	}
}

// AsObject returns the Object if this value wraps one.
func (v Value) AsObject() (Object, bool) {
	o, ok := v.data.(Object)
	return o, ok
}

// AsCallable returns the Callable if this value is callable.
func (v Value) AsCallable() (Callable, bool) {
	c, ok := v.data.(Callable)
	return c, ok
}

// AsDeferred returns the Deferred if this value is one.
func (v Value) AsDeferred() (*Deferred, bool) {
	d, ok := v.data.(*Deferred)
	return d, ok
}

// AsStream returns the Stream if this value is one.
func (v Value) AsStream() (*Stream, bool) {
	s, ok := v.data.(*Stream)
	return s, ok
}

// Len returns the length of the value if it has one.
func (v Value) Len() (int, bool) {
	switch d := v.data.(type) {
	case string:
		return len([]rune(d)), true
	case safeString:
		return len([]rune(d)), true
	case []Value:
		return len(d), true
	case map[string]Value:
		return len(d), true
	case MapObject:
		return len(d.Keys()), true
	default:
		return 0, false
	}
}

// Member returns the member named key, as a dotted path segment sees it.
//
// Maps and objects are looked up by key. Sequences accept an integer index
// and "length"; strings accept "length".
func (v Value) Member(key string) Value {
	switch d := v.data.(type) {
	case map[string]Value:
		if val, ok := d[key]; ok {
			return val
		}
	case []Value:
		if key == "length" {
			return FromInt(int64(len(d)))
		}
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(d) {
			return d[idx]
		}
	case string, safeString:
		if key == "length" {
			n, _ := v.Len()
			return FromInt(int64(n))
		}
	case Object:
		return d.GetAttr(key)
	}
	return Undefined()
}

// HasMember reports whether key exists on a structured value.
func (v Value) HasMember(key string) bool {
	switch d := v.data.(type) {
	case map[string]Value:
		_, ok := d[key]
		return ok
	default:
		return !v.Member(key).IsUndefined()
	}
}

// Raw returns the underlying Go value.
func (v Value) Raw() any {
	return v.data
}

// ToNative converts a value back into plain Go data suitable for
// encoding/json: nil, bool, int64, float64, string, []any, map[string]any.
func ToNative(v Value) any {
	switch v.Kind() {
	case KindUndefined, KindNone:
		return nil
	case KindBool:
		b, _ := v.AsBool()
		return b
	case KindNumber:
		if i, ok := v.data.(int64); ok {
			return i
		}
		f, _ := v.AsFloat()
		return f
	case KindString:
		s, _ := v.AsString()
		return s
	case KindSeq:
		items, _ := v.AsSlice()
		result := make([]any, len(items))
		for i, item := range items {
			result[i] = ToNative(item)
		}
		return result
	case KindMap:
		m, _ := v.AsMap()
		result := make(map[string]any, len(m))
		for k, val := range m {
			result[k] = ToNative(val)
		}
		return result
	case KindPlain:
		if m, ok := v.AsMap(); ok {
			result := make(map[string]any, len(m))
			for k, val := range m {
				result[k] = ToNative(val)
			}
			return result
		}
		return v.String()
	default:
		return nil
	}
}
