package wireform_test

import (
	"reflect"
	"strings"
	"testing"

	wireform "github.com/wireform/wireform"
	"github.com/wireform/wireform/schema"
)

type Score struct {
	Label   string
	Version string
	Extra   wireform.ExtraData
}

func scoreSchema(t *testing.T) *schema.Schema[Score] {
	t.Helper()
	s, err := schema.New[Score]().
		Field("label", schema.String()).Default("Score").StoreDefault(false).
		Field("version", schema.String()).Default("").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return s
}

func TestEncodeOmitsDefaultValuedFields(t *testing.T) {
	s := scoreSchema(t)

	tree, err := wireform.Encode[Score](s, Score{Label: "Score", Version: "v2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tree["label"]; ok {
		t.Fatalf("label equals its default and should be omitted, got %v", tree)
	}
	if tree["version"] != "v2" {
		t.Fatalf("want version v2, got %v", tree["version"])
	}

	tree, err = wireform.Encode[Score](s, Score{Label: "Time", Version: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree["label"] != "Time" {
		t.Fatalf("want label Time, got %v", tree["label"])
	}
	// version has StoreDefault left on, so it is written even at its default
	if v, ok := tree["version"]; !ok || v != "" {
		t.Fatalf("want explicit empty version, got %v", tree)
	}
}

func TestDecodeFillsDefaultsSilently(t *testing.T) {
	s := scoreSchema(t)

	dm, err := wireform.DecodeWithMeta[Score](s, map[string]any{"version": "v2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dm.Value.Label != "Score" || dm.Value.Version != "v2" {
		t.Fatalf("unexpected value: %+v", dm.Value)
	}
	if len(dm.Warnings) != 0 {
		t.Fatalf("plain defaults must not warn, got %v", dm.Warnings)
	}
}

func TestUnknownFieldsSurviveRoundTrip(t *testing.T) {
	s := scoreSchema(t)

	v, err := wireform.Decode[Score](s, map[string]any{
		"label":      "Time",
		"experiment": map[string]any{"arm": "b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Extra == nil {
		t.Fatalf("unknown key should land in ExtraData")
	}
	tree, err := wireform.Encode[Score](s, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := tree["experiment"].(map[string]any)
	if !ok || !reflect.DeepEqual(got, map[string]any{"arm": "b"}) {
		t.Fatalf("unknown field lost in round trip: %v", tree)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := scoreSchema(t)

	v, err := wireform.FromJSON[Score](s, []byte(`{"label":"Time","version":"v3","n":41}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := wireform.ToJSON[Score](s, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"label":"Time"`, `"version":"v3"`, `"n":41`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("round-tripped JSON missing %s: %s", want, out)
		}
	}
}

func TestJSONTreeRejectsTrailingData(t *testing.T) {
	if _, err := wireform.JSONTree([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Fatalf("expected parse error for trailing content")
	}
}

func TestYAMLTreeNormalizesKeys(t *testing.T) {
	tree, err := wireform.YAMLTree([]byte("label: Time\n7: lucky\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := tree.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", tree)
	}
	if m["label"] != "Time" || m["7"] != "lucky" {
		t.Fatalf("unexpected tree: %v", m)
	}
}

func TestIssuesSummaryShowsCodeAndPath(t *testing.T) {
	s := scoreSchema(t)

	_, err := wireform.Decode[Score](s, map[string]any{"label": 5})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "invalid_type at label") {
		t.Fatalf("unexpected summary: %v", err)
	}
	iss, ok := wireform.AsIssues(err)
	if !ok || iss[0].Code != wireform.CodeInvalidType || iss[0].Path != "label" {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

type inner struct {
	Count int
}

type outer struct {
	Name  string
	Inner inner
}

func TestNestedIssuePathsAreDotted(t *testing.T) {
	is, err := schema.New[inner]().
		Field("count", schema.Int()).
		Build()
	if err != nil {
		t.Fatalf("build inner: %v", err)
	}
	os, err := schema.New[outer]().
		Field("name", schema.String()).
		Field("inner", schema.Rec[inner](is)).
		Build()
	if err != nil {
		t.Fatalf("build outer: %v", err)
	}

	_, err = wireform.Decode[outer](os, map[string]any{
		"name":  "x",
		"inner": map[string]any{"count": "nope"},
	})
	iss, ok := wireform.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected issues, got %v", err)
	}
	if iss[0].Path != "inner.count" {
		t.Fatalf("want dotted path inner.count, got %q", iss[0].Path)
	}
}

func TestSafeDecodeAndIs(t *testing.T) {
	s := scoreSchema(t)

	if _, ok := wireform.SafeDecode[Score](s, map[string]any{"label": 5}); ok {
		t.Fatalf("SafeDecode should report failure")
	}
	v, ok := wireform.SafeDecode[Score](s, map[string]any{"label": "Time"})
	if !ok || v.Label != "Time" {
		t.Fatalf("SafeDecode failed: %+v ok=%v", v, ok)
	}
	if !wireform.Is[Score](s, v) {
		t.Fatalf("Is should accept a valid record")
	}
}

func TestRebaseIssuesPrefixesPaths(t *testing.T) {
	err := wireform.Issues{{Path: "count", Code: wireform.CodeInvalidType}}
	out := wireform.RebaseIssues("inner", err)
	if out[0].Path != "inner.count" {
		t.Fatalf("want inner.count, got %q", out[0].Path)
	}
}
