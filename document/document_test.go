package document

import "testing"

const sample = `{
	"name": "test-agent",
	"version": 2,
	"active": true,
	"capabilities": {"streaming": true, "push": false},
	"skills": [
		{"id": "s1", "name": "first"},
		{"id": "s2"}
	],
	"nullfield": null
}`

func mustParse(t *testing.T, raw string) Value {
	t.Helper()
	v, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return v
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("<html>not json</html>")); err == nil {
		t.Error("expected error for non-JSON input")
	}
}

func TestValue_Get(t *testing.T) {
	v := mustParse(t, sample)

	tests := []struct {
		name string
		path []string
		want bool
	}{
		{"top-level present", []string{"name"}, true},
		{"nested present", []string{"capabilities", "streaming"}, true},
		{"null is present", []string{"nullfield"}, true},
		{"absent key", []string{"missing"}, false},
		{"descend through scalar", []string{"name", "deeper"}, false},
		{"descend through array", []string{"skills", "id"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := v.Get(tt.path...); ok != tt.want {
				t.Errorf("Get(%v) ok = %v, want %v", tt.path, ok, tt.want)
			}
		})
	}
}

func TestValue_TypedAccessors(t *testing.T) {
	v := mustParse(t, sample)

	if s, ok := v.String("name"); !ok || s != "test-agent" {
		t.Errorf("String(name) = %q, %v", s, ok)
	}
	if _, ok := v.String("version"); ok {
		t.Error("String(version) should fail for a number")
	}
	if n, ok := v.Number("version"); !ok || n != 2 {
		t.Errorf("Number(version) = %v, %v", n, ok)
	}
	if b, ok := v.Bool("active"); !ok || !b {
		t.Errorf("Bool(active) = %v, %v", b, ok)
	}
	if m, ok := v.Map("capabilities"); !ok || len(m) != 2 {
		t.Errorf("Map(capabilities) = %v, %v", m, ok)
	}
	if arr, ok := v.Array("skills"); !ok || len(arr) != 2 {
		t.Errorf("Array(skills) = %v, %v", arr, ok)
	}
	if got := v.StringOr("fallback", "missing"); got != "fallback" {
		t.Errorf("StringOr default = %q", got)
	}
}

func TestValue_NilSafety(t *testing.T) {
	v := Nil()

	if !v.IsNil() {
		t.Error("Nil() should report IsNil")
	}
	if _, ok := v.Get("anything"); ok {
		t.Error("Get on nil value should report absent")
	}
	if _, ok := v.Array("skills"); ok {
		t.Error("Array on nil value should report absent")
	}
	if v.Encode() != "" {
		t.Error("Encode on nil value should be empty")
	}
}

func TestValue_ArrayElements(t *testing.T) {
	v := mustParse(t, sample)
	skills, _ := v.Array("skills")

	if s, ok := skills[0].String("name"); !ok || s != "first" {
		t.Errorf("skills[0].name = %q, %v", s, ok)
	}
	if _, ok := skills[1].String("name"); ok {
		t.Error("skills[1].name should be absent")
	}
}

func TestValue_Keys(t *testing.T) {
	v := mustParse(t, sample)

	keys, ok := v.Keys("capabilities")
	if !ok || len(keys) != 2 {
		t.Fatalf("Keys(capabilities) = %v, %v", keys, ok)
	}
	if _, ok := v.Keys("name"); ok {
		t.Error("Keys on a scalar should report absent")
	}
}
