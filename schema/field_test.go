package schema_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	wireform "github.com/wireform/wireform"
	"github.com/wireform/wireform/schema"
)

type session struct {
	ID      uuid.UUID
	Started time.Time
	Token   []byte
}

func sessionSchema(t *testing.T) *schema.Schema[session] {
	t.Helper()
	s, err := schema.New[session]().
		Field("id", schema.UUID()).
		Field("started", schema.Time()).
		Field("token", schema.Bytes()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return s
}

func TestCodecFieldsRoundTrip(t *testing.T) {
	s := sessionSchema(t)

	in := session{
		ID:      uuid.MustParse("01234567-89ab-cdef-0123-456789abcdef"),
		Started: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Token:   []byte{1, 2, 3},
	}
	tree, err := s.Encode(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tree["id"].(string); !ok {
		t.Fatalf("uuid should encode as string, got %T", tree["id"])
	}
	if _, ok := tree["started"].(float64); !ok {
		t.Fatalf("time should encode as float seconds, got %T", tree["started"])
	}
	out, err := s.Decode(map[string]any(tree))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestTimeFieldRejectsZonedValues(t *testing.T) {
	s := sessionSchema(t)

	loc := time.FixedZone("CET", 3600)
	_, err := s.Encode(session{
		ID:      uuid.New(),
		Started: time.Date(2024, 6, 1, 13, 0, 0, 0, loc),
	})
	iss, ok := wireform.AsIssues(err)
	if !ok || iss[0].Path != "started" {
		t.Fatalf("expected issue at started, got %v", err)
	}
}

func TestCalendarFieldRoundTrip(t *testing.T) {
	type event struct {
		When time.Time
	}
	s, err := schema.New[event]().
		Field("when", schema.TimeCalendar()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	in := event{When: time.Date(2024, 6, 1, 12, 30, 45, 123456000, time.UTC)}
	tree, err := s.Encode(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := tree["when"].(map[string]any)
	if !ok {
		t.Fatalf("calendar time should encode as tagged object, got %T", tree["when"])
	}
	if _, ok := m["_dt"]; !ok {
		t.Fatalf("missing calendar tag: %v", m)
	}
	out, err := s.Decode(map[string]any(tree))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.When.Equal(in.When) {
		t.Fatalf("round trip mismatch: %v vs %v", out.When, in.When)
	}
}

func TestIntDecodeRejectsOutOfRangeValues(t *testing.T) {
	type counters struct {
		Small int8
		Port  uint16
	}
	s, err := schema.New[counters]().
		Field("small", schema.IntOf[int8]()).
		Field("port", schema.IntOf[uint16]()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// a wire value past the type's range must raise, never wrap
	_, err = s.Decode(map[string]any{"small": 300, "port": 1})
	iss, ok := wireform.AsIssues(err)
	if !ok || iss[0].Code != wireform.CodeInvalidValue || iss[0].Path != "small" {
		t.Fatalf("want invalid_value at small, got %v", err)
	}

	_, err = s.Decode(map[string]any{"small": 1, "port": -5})
	iss, ok = wireform.AsIssues(err)
	if !ok || iss[0].Code != wireform.CodeInvalidValue || iss[0].Path != "port" {
		t.Fatalf("want invalid_value at port, got %v", err)
	}

	// exact bounds still decode
	v, err := s.Decode(map[string]any{"small": -128, "port": 65535})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Small != -128 || v.Port != 65535 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestJSONSchemaProjection(t *testing.T) {
	type doc struct {
		Name  string
		Count int
	}
	s, err := schema.New[doc]().
		Field("name", schema.String()).
		Field("count", schema.Int()).Default(1).
		UnknownStrict().
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	js, err := s.JSONSchema()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if js.Type != "object" {
		t.Fatalf("want object, got %q", js.Type)
	}
	if js.Properties["name"].Type != "string" || js.Properties["count"].Type != "integer" {
		t.Fatalf("unexpected properties: %+v", js.Properties)
	}
	if !reflect.DeepEqual(js.Required, []string{"name"}) {
		t.Fatalf("defaulted fields are not required, got %v", js.Required)
	}
	if js.Properties["count"].Default != 1 {
		t.Fatalf("default should project, got %v", js.Properties["count"].Default)
	}
	if js.AdditionalProperties != false {
		t.Fatalf("strict records forbid additional properties, got %v", js.AdditionalProperties)
	}
}
