package pipeline

import (
	"github.com/jt828/runner/pkg/observability"
	"github.com/tidwall/gjson"
)

// spanEvent is a line of the form
//
//	{"event": "<kind>", "span": {"spanID": "<id>", ...}}
type spanEvent struct {
	kind string
	id   string
	span gjson.Result
}

func parseSpanEvent(line string) (spanEvent, bool) {
	if !gjson.Valid(line) {
		return spanEvent{}, false
	}
	doc := gjson.Parse(line)
	if !doc.IsObject() {
		return spanEvent{}, false
	}

	event := doc.Get("event")
	span := doc.Get("span")
	if event.Type != gjson.String || !span.IsObject() {
		return spanEvent{}, false
	}

	id := span.Get("spanID")
	if id.Type != gjson.String {
		return spanEvent{}, false
	}

	return spanEvent{kind: event.Str, id: id.Str, span: span}, true
}

// spanFields flattens the span object into typed fields. Nested values are
// kept as raw JSON.
func spanFields(span gjson.Result) []observability.Field {
	var fields []observability.Field
	span.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		switch value.Type {
		case gjson.String:
			fields = append(fields, observability.String(k, value.Str))
		case gjson.Number:
			if f := value.Float(); f == float64(int64(f)) {
				fields = append(fields, observability.Int64(k, value.Int()))
			} else {
				fields = append(fields, observability.Float64(k, f))
			}
		case gjson.True, gjson.False:
			fields = append(fields, observability.Bool(k, value.Bool()))
		case gjson.JSON:
			fields = append(fields, observability.String(k, value.Raw))
		}
		return true
	})
	return fields
}
