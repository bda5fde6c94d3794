package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	wireform "github.com/wireform/wireform"
)

// CalendarTagKey is the reserved wrapper key for calendar-tuple timestamps,
// letting generic tree consumers tell them apart from plain lists.
const CalendarTagKey = "_dt"

// UnixSeconds returns a Codec that converts between float Unix seconds and
// time.Time. Times are always UTC; encoding a value carrying any other zone
// offset is an error.
func UnixSeconds() wireform.Codec[float64, time.Time] { return unixSecondsCodec{} }

type unixSecondsCodec struct{}

func (unixSecondsCodec) Decode(a float64) (time.Time, error) {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return time.Time{}, wireform.Issues{{Code: wireform.CodeInvalidValue, Message: "non-finite timestamp"}}
	}
	sec, frac := math.Modf(a)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
}

func (unixSecondsCodec) Encode(t time.Time) (float64, error) {
	if err := requireUTC(t); err != nil {
		return 0, err
	}
	// split seconds and fraction; going through UnixNano would overflow
	// float64's integer precision
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9, nil
}

// Calendar returns a Codec that converts between a tagged 7-tuple
// {"_dt":[year,month,day,hour,minute,second,microsecond]} and time.Time.
// Times are always UTC.
func Calendar() wireform.Codec[wireform.Tree, time.Time] { return calendarCodec{} }

type calendarCodec struct{}

func (calendarCodec) Decode(a wireform.Tree) (time.Time, error) {
	raw, ok := a[CalendarTagKey]
	if !ok {
		return time.Time{}, wireform.Issues{{Code: wireform.CodeInvalidType, Message: "missing " + CalendarTagKey + " timestamp tag"}}
	}
	list, ok := raw.([]any)
	if !ok || len(list) != 7 {
		return time.Time{}, wireform.Issues{{Code: wireform.CodeInvalidType, Message: "calendar timestamp must be a 7-element integer list"}}
	}
	parts := make([]int, 7)
	for i, el := range list {
		n, err := intFromTree(el)
		if err != nil {
			return time.Time{}, wireform.Issues{{Code: wireform.CodeInvalidType, Message: fmt.Sprintf("calendar element %d is not an integer", i), Cause: err}}
		}
		parts[i] = int(n)
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6]*1000, time.UTC)
	return t, nil
}

func (calendarCodec) Encode(t time.Time) (wireform.Tree, error) {
	if err := requireUTC(t); err != nil {
		return nil, err
	}
	u := t.UTC()
	return wireform.Tree{CalendarTagKey: []any{
		int64(u.Year()), int64(u.Month()), int64(u.Day()),
		int64(u.Hour()), int64(u.Minute()), int64(u.Second()),
		int64(u.Nanosecond() / 1000),
	}}, nil
}

func requireUTC(t time.Time) error {
	if _, offset := t.Zone(); offset != 0 {
		return wireform.Issues{{Code: wireform.CodeInvalidValue, Message: "timestamps must be UTC", Hint: "convert with time.Time.UTC before encoding"}}
	}
	return nil
}

// intFromTree reads an integral number out of a value tree element, accepting
// the json.Number form the JSON driver produces as well as plain Go ints.
func intFromTree(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("non-integral number %v", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("unsupported number type %T", v)
	}
}
