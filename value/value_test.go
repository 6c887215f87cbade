package value

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		v     Value
		empty bool
	}{
		{"undefined", Undefined(), true},
		{"none", None(), true},
		{"false", False(), true},
		{"empty string", FromString(""), true},
		{"empty seq", FromSlice(nil), true},
		{"zero", FromInt(0), false},
		{"float zero", FromFloat(0), false},
		{"true", True(), false},
		{"text", FromString("x"), false},
		{"seq", FromAny([]int{1}), false},
		{"empty map", FromMap(map[string]Value{}), false},
		{"deferred", FromDeferred(NewDeferred()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestIsTrue(t *testing.T) {
	if FromInt(0).IsTrue() {
		t.Error("0 is true")
	}
	if !FromSlice(nil).IsTrue() {
		t.Error("empty sequence is false")
	}
	if !FromMap(nil).IsTrue() {
		t.Error("map is false")
	}
}

func TestFromAny(t *testing.T) {
	type user struct {
		Name   string `json:"name"`
		Secret string `json:"-"`
		Age    int
	}
	v := FromAny(map[string]any{
		"user":  user{Name: "ann", Secret: "x", Age: 3},
		"float": 2.0,
		"items": []string{"a", "b"},
		"nil":   nil,
		"later": NewDeferred(),
	})

	if got := v.Member("user").Member("name").String(); got != "ann" {
		t.Errorf("user.name = %q", got)
	}
	if !v.Member("user").Member("Secret").IsUndefined() {
		t.Error("json:\"-\" field was exported")
	}
	if got := v.Member("user").Member("Age").String(); got != "3" {
		t.Errorf("user.Age = %q", got)
	}
	if _, ok := v.Member("float").Raw().(int64); !ok {
		t.Errorf("whole float kept as %T", v.Member("float").Raw())
	}
	if v.Member("items").Kind() != KindSeq {
		t.Errorf("items kind = %s", v.Member("items").Kind())
	}
	if !v.Member("nil").IsNone() {
		t.Error("nil is not none")
	}
	if v.Member("later").Kind() != KindDeferred {
		t.Errorf("later kind = %s", v.Member("later").Kind())
	}
}

func TestMember(t *testing.T) {
	seq := FromAny([]string{"a", "b", "c"})
	if got := seq.Member("1").String(); got != "b" {
		t.Errorf("seq[1] = %q", got)
	}
	if got := seq.Member("length").String(); got != "3" {
		t.Errorf("seq.length = %q", got)
	}
	if !seq.Member("5").IsUndefined() {
		t.Error("out of range index is defined")
	}
	if got := FromString("héllo").Member("length").String(); got != "5" {
		t.Errorf("string length = %q", got)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{FromAny([]int{1, 2}), "1,2"},
		{FromFloat(1.5), "1.5"},
		{None(), "null"},
		{Undefined(), ""},
		{FromAny(map[string]any{"a": 1}), `{"a":1}`},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%s.String() = %q, want %q", tt.v.Repr(), got, tt.want)
		}
	}
}

func TestMergeMaps(t *testing.T) {
	a := FromAny(map[string]any{"x": 1, "y": 2})
	b := FromAny(map[string]any{"y": 3})
	m := MergeMaps(a, b, FromInt(7))

	if got := m.Member("x").String(); got != "1" {
		t.Errorf("x = %q", got)
	}
	if got := m.Member("y").String(); got != "3" {
		t.Errorf("y = %q, want later source to win", got)
	}
	obj, ok := m.AsObject()
	if !ok {
		t.Fatal("merged value is not an object")
	}
	keys := obj.(MapObject).Keys()
	if len(keys) != 2 || keys[0] != "x" || keys[1] != "y" {
		t.Errorf("keys = %v", keys)
	}

	if single := MergeMaps(a); single.Member("x").String() != "1" {
		t.Error("single source changed")
	}
	if empty := MergeMaps(); empty.Kind() != KindMap {
		t.Errorf("no sources gave %s", empty.Kind())
	}
}

func TestFromError(t *testing.T) {
	v := FromError(errTest("bad"))
	if got := v.Member("message").String(); got != "bad" {
		t.Errorf("message = %q", got)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
