package selection

import "testing"

type valueMeta struct {
	Slug  string
	inner string
}

type valueItem struct {
	Name string
	Meta *valueMeta
	Tags map[string]int
}

func TestProjectValue(t *testing.T) {
	item := valueItem{Name: "one", Meta: &valueMeta{Slug: "first", inner: "x"}, Tags: map[string]int{"rank": 3}}

	cases := []struct {
		path string
		want any
		ok   bool
	}{
		{path: "", want: item, ok: true},
		{path: "Name", want: "one", ok: true},
		{path: " Meta.Slug ", want: "first", ok: true},
		{path: "Tags.rank", want: 3, ok: true},
		{path: "Meta.inner", ok: false},
		{path: "Tags.missing", ok: false},
		{path: "Name.Length", ok: false},
		{path: "Unknown", ok: false},
	}
	for _, tc := range cases {
		got, ok := projectValue(item, tc.path)
		if ok != tc.ok {
			t.Fatalf("path %q: expected ok=%v, got %v", tc.path, tc.ok, ok)
		}
		if ok && !ItemsEqual(got, tc.want) {
			t.Fatalf("path %q: expected %#v, got %#v", tc.path, tc.want, got)
		}
	}
}

type ValueBase struct {
	Code string
}

type embeddedItem struct {
	*ValueBase
}

func TestProjectValueNilEmbeddedPointer(t *testing.T) {
	if _, ok := projectValue(embeddedItem{}, "Code"); ok {
		t.Fatalf("expected nil embedded pointer to stop projection")
	}
	got, ok := projectValue(embeddedItem{ValueBase: &ValueBase{Code: "c1"}}, "Code")
	if !ok || got != "c1" {
		t.Fatalf("expected promoted field c1, got %#v ok=%v", got, ok)
	}
}

func TestProjectValueNilPointer(t *testing.T) {
	if _, ok := projectValue(valueItem{}, "Meta.Slug"); ok {
		t.Fatalf("expected nil pointer to stop projection")
	}
	if _, ok := projectValue(&valueItem{Name: "ptr"}, "Name"); !ok {
		t.Fatalf("expected pointer receiver to project")
	}
}
