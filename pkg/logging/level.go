package logging

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the minimum severity a logger writes.
type Level int32

const (
	// DebugLevel carries per-link detail such as the centrality debug listing
	DebugLevel Level = iota
	// InfoLevel is the default
	InfoLevel
	// WarnLevel marks recoverable data problems: skipped links, bad RMSE values
	WarnLevel
	// ErrorLevel is reserved for failures that abort a run
	ErrorLevel
)

// ErrUnknownLevel is returned by UnmarshalText for names ParseLevel would
// silently map to InfoLevel.
var ErrUnknownLevel = errors.New("unknown log level")

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

func lookupLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	}
	return InfoLevel, false
}

// ParseLevel converts a name to a Level, ignoring case. Unknown names map to
// InfoLevel.
func ParseLevel(s string) Level {
	l, _ := lookupLevel(s)
	return l
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, ok := lookupLevel(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, text)
	}
	*l = parsed
	return nil
}
