package logging

import "time"

// Field is one key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field             { return Field{Key: key, Value: value} }
func Int(key string, value int) Field            { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field        { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field    { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field          { return Field{Key: key, Value: value} }
func Any(key string, value any) Field            { return Field{Key: key, Value: value} }
func Duration(key string, d time.Duration) Field { return Field{Key: key, Value: d.String()} }

// Error records err.Error() under "error"; a nil err records null.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Keys shared by the pipeline, ingestion and the CLI.
const (
	KeyComponent = "component"
	KeyRunID     = "run_id"
	KeyStage     = "stage"
	KeyLinkID    = "link_id"
	KeyCategory  = "category"
	KeyKind      = "kind"
	KeyLatency   = "latency"
	KeyCount     = "count"
	KeyPath      = "path"
)

func Component(name string) Field { return String(KeyComponent, name) }
func RunID(id string) Field       { return String(KeyRunID, id) }
func Stage(name string) Field     { return String(KeyStage, name) }
func LinkID(id string) Field      { return String(KeyLinkID, id) }
func Category(c string) Field     { return String(KeyCategory, c) }

// Kind tags a diagnostic warning, e.g. "self_loop"
func Kind(k string) Field { return String(KeyKind, k) }

func Latency(d time.Duration) Field { return Duration(KeyLatency, d) }
func Count(n int) Field             { return Int(KeyCount, n) }
func Path(p string) Field           { return String(KeyPath, p) }
