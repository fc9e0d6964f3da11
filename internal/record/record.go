// Package record builds the JSON records runner writes to its output, one
// per line of child output that survives correlation.
package record

import (
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Field names shared by every record shape.
const (
	KeyTimestamp   = "timestamp"
	KeyLevel       = "level"
	KeyMessage     = "message"
	KeyDuration    = "duration"
	KeyServiceName = "serviceName"
)

// TimestampLayout is RFC 3339 with a fixed nanosecond fraction.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Stream names the child output a line was read from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Kind says which path produced a record.
type Kind string

const (
	KindPassthrough Kind = "passthrough"
	KindFallback    Kind = "fallback"
	KindSpan        Kind = "span"
)

// Record is a single compact JSON object. It is never modified after it is
// built.
type Record []byte

func (r Record) String() string { return string(r) }

// Get looks up a top level field.
func (r Record) Get(key string) gjson.Result {
	return gjson.GetBytes(r, gjson.Escape(key))
}

// Timestamp formats t the way every record carries it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// set writes a top level field. Keys are fixed identifiers, so sjson can
// only fail on a malformed document, which callers never pass.
func set(doc []byte, key string, value any) []byte {
	out, err := sjson.SetBytes(doc, key, value)
	if err != nil {
		return doc
	}
	return out
}

func has(doc []byte, key string) bool {
	return gjson.GetBytes(doc, key).Exists()
}

func compact(doc []byte) Record {
	return Record(pretty.Ugly(doc))
}
