package schema_test

import (
	"strings"
	"testing"

	wireform "github.com/wireform/wireform"
	"github.com/wireform/wireform/schema"
)

type profile struct {
	Name  string
	Age   int
	Score float64
	Tags  []string
}

func profileSchema(t *testing.T) *schema.Schema[profile] {
	t.Helper()
	s, err := schema.New[profile]().
		Field("name", schema.String()).
		Field("age", schema.Int()).Default(0).
		Field("score", schema.Float()).Default(1.0).
		Field("tags", schema.ListOf[string](schema.String())).DefaultFn(func() any { return []string{} }).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return s
}

func TestRequiredFieldMissing(t *testing.T) {
	s := profileSchema(t)

	_, err := s.Decode(map[string]any{"age": 3})
	iss, ok := wireform.AsIssues(err)
	if !ok {
		t.Fatalf("expected issues, got %v", err)
	}
	if iss[0].Code != wireform.CodeRequired || iss[0].Path != "name" {
		t.Fatalf("unexpected issue: %+v", iss[0])
	}
}

func TestDefaultFnYieldsFreshValues(t *testing.T) {
	s := profileSchema(t)

	a, err := s.Decode(map[string]any{"name": "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := s.Decode(map[string]any{"name": "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Tags = append(a.Tags, "mutated")
	if len(b.Tags) != 0 {
		t.Fatalf("factory default leaked between instances: %v", b.Tags)
	}
}

func TestSoftDefaultWarnsOnFill(t *testing.T) {
	type msg struct {
		Body    string
		Channel string
	}
	s, err := schema.New[msg]().
		Field("body", schema.String()).
		Field("channel", schema.String()).SoftDefault("general").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	dm, err := s.DecodeWithMeta(map[string]any{"body": "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dm.Value.Channel != "general" {
		t.Fatalf("soft default not applied: %+v", dm.Value)
	}
	if len(dm.Warnings) != 1 || dm.Warnings[0].Code != wireform.CodeSoftDefault {
		t.Fatalf("expected one soft_default_applied warning, got %v", dm.Warnings)
	}
	if dm.Warnings[0].Path != "channel" {
		t.Fatalf("unexpected warning path: %q", dm.Warnings[0].Path)
	}

	// present keys never warn
	dm, err = s.DecodeWithMeta(map[string]any{"body": "hi", "channel": "ops"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dm.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", dm.Warnings)
	}
	// soft defaults never affect encode
	tree, err := s.Encode(msg{Body: "hi", Channel: "general"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree["channel"] != "general" {
		t.Fatalf("soft default must still be written on encode: %v", tree)
	}
}

func TestOptionalField(t *testing.T) {
	type form struct {
		Name string
		Note *string
	}
	s, err := schema.New[form]().
		Field("name", schema.String()).
		Field("note", schema.Optional[string](schema.String())).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	v, err := s.Decode(map[string]any{"name": "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Note != nil {
		t.Fatalf("absent optional should stay nil")
	}
	v, err = s.Decode(map[string]any{"name": "a", "note": nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Note != nil {
		t.Fatalf("null optional should stay nil")
	}
	v, err = s.Decode(map[string]any{"name": "a", "note": "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Note == nil || *v.Note != "hello" {
		t.Fatalf("unexpected note: %v", v.Note)
	}
	tree, err := s.Encode(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree["note"] != "hello" {
		t.Fatalf("unexpected tree: %v", tree)
	}
}

func TestStorageKeyOverride(t *testing.T) {
	type packet struct {
		Payload string
	}
	s, err := schema.New[packet]().
		Field("payload", schema.String()).Key("p").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tree, err := s.Encode(packet{Payload: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree["p"] != "x" {
		t.Fatalf("short key not used: %v", tree)
	}
	v, err := s.Decode(map[string]any{"p": "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Payload != "y" {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestBuildRejectsDuplicateStorageKeys(t *testing.T) {
	type twice struct {
		A string
		B string
	}
	_, err := schema.New[twice]().
		Field("a", schema.String()).Key("k").
		Field("b", schema.String()).Key("k").
		Build()
	if err == nil || !strings.Contains(err.Error(), wireform.CodeSchemaError) {
		t.Fatalf("expected schema_error for duplicate key, got %v", err)
	}
}

func TestBuildRejectsInvalidDefault(t *testing.T) {
	type rec struct {
		N int
	}
	_, err := schema.New[rec]().
		Field("n", schema.Int()).Default("not a number").
		Build()
	if err == nil {
		t.Fatalf("expected build failure for mistyped default")
	}
}

func TestBuildRejectsUnboundField(t *testing.T) {
	type rec struct {
		N int
	}
	_, err := schema.New[rec]().
		Field("missing", schema.Int()).
		Build()
	if err == nil {
		t.Fatalf("expected build failure for unbound field")
	}
}

func TestBuildRejectsNativeTypeMismatch(t *testing.T) {
	type rec struct {
		N int
	}
	// IntOf[int64] does not match the struct's int field
	_, err := schema.New[rec]().
		Field("n", schema.IntOf[int64]()).
		Build()
	if err == nil {
		t.Fatalf("expected build failure for native type mismatch")
	}
}

func TestBuildRejectsPreserveWithoutExtraData(t *testing.T) {
	type rec struct {
		N int
	}
	_, err := schema.New[rec]().
		Field("n", schema.Int()).
		PreserveUnknown().
		Build()
	if err == nil {
		t.Fatalf("expected build failure: PreserveUnknown needs an ExtraData field")
	}
}

func TestUnknownStrict(t *testing.T) {
	type rec struct {
		N int
	}
	s, err := schema.New[rec]().
		Field("n", schema.Int()).
		UnknownStrict().
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, err = s.Decode(map[string]any{"n": 1, "stray": true})
	iss, ok := wireform.AsIssues(err)
	if !ok || iss[0].Code != wireform.CodeUnknownKey || iss[0].Path != "stray" {
		t.Fatalf("unexpected issues: %v", err)
	}
}

func TestUnknownStripIsDefaultWithoutExtraData(t *testing.T) {
	type rec struct {
		N int
	}
	s, err := schema.New[rec]().
		Field("n", schema.Int()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v, err := s.Decode(map[string]any{"n": 1, "stray": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.N != 1 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestFailFastStopsAtFirstIssue(t *testing.T) {
	s := profileSchema(t)

	_, err := s.Decode(map[string]any{"name": 1, "age": "x", "score": "y"}, wireform.DecodeOpt{FailFast: true})
	iss, ok := wireform.AsIssues(err)
	if !ok {
		t.Fatalf("expected issues, got %v", err)
	}
	if len(iss) != 1 {
		t.Fatalf("fail-fast should stop after one issue, got %d: %v", len(iss), iss)
	}
}

func TestCheckValidatesDeclaredFields(t *testing.T) {
	type doc struct {
		Kind string
	}
	s, err := schema.New[doc]().
		Field("kind", schema.EnumOf("a", "b")).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.Check(doc{Kind: "a"}); err != nil {
		t.Fatalf("unexpected check failure: %v", err)
	}
	err = s.Check(doc{Kind: "zzz"})
	iss, ok := wireform.AsIssues(err)
	if !ok || iss[0].Code != wireform.CodeInvalidEnum {
		t.Fatalf("expected invalid_enum, got %v", err)
	}
}

func TestStructTagBinding(t *testing.T) {
	type rec struct {
		Display string `json:"display_name"`
	}
	s, err := schema.New[rec]().
		Field("display_name", schema.String()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v, err := s.Decode(map[string]any{"display_name": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Display != "x" {
		t.Fatalf("tag binding failed: %+v", v)
	}
}
