package record

import (
	"time"

	"github.com/tidwall/gjson"
)

// Normalize turns one line of child output into a record. It never fails:
// anything that is not a JSON object degrades to the fallback shape.
//
// For a JSON object the child's fields are kept as written; timestamp and
// level are only added when the child did not supply them.
func Normalize(line string, stream Stream, now time.Time) (Record, Kind) {
	if !gjson.Valid(line) {
		return Fallback(line, stream, now), KindFallback
	}
	parsed := gjson.Parse(line)
	if !parsed.IsObject() {
		return Fallback(line, stream, now), KindFallback
	}

	doc := []byte(parsed.Raw)
	if !has(doc, KeyTimestamp) {
		doc = set(doc, KeyTimestamp, Timestamp(now))
	}
	if !has(doc, KeyLevel) {
		doc = set(doc, KeyLevel, string(stream))
	}
	return compact(doc), KindPassthrough
}

// Fallback wraps a line that is not a JSON object.
func Fallback(line string, stream Stream, now time.Time) Record {
	doc := []byte(`{}`)
	doc = set(doc, KeyTimestamp, Timestamp(now))
	doc = set(doc, KeyLevel, string(stream))
	doc = set(doc, KeyMessage, line)
	return Record(doc)
}

// Span builds the record emitted when a span ends. The span's own fields
// take precedence over timestamp and duration; serviceName always wins.
func Span(span gjson.Result, start time.Time, duration time.Duration, serviceName string) Record {
	doc := []byte(span.Raw)
	if !span.IsObject() {
		doc = []byte(`{}`)
	}
	if !has(doc, KeyTimestamp) {
		doc = set(doc, KeyTimestamp, Timestamp(start))
	}
	if !has(doc, KeyDuration) {
		doc = set(doc, KeyDuration, duration.Nanoseconds())
	}
	doc = set(doc, KeyServiceName, serviceName)
	return compact(doc)
}
