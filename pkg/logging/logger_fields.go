package logging

import (
	"fmt"
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain fields

func Component(name string) Field {
	return String("component", name)
}

// Address accepts any string-like address type
func Address[T ~string](addr T) Field {
	return String("address", string(addr))
}

func Category(name string) Field {
	return String("category", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Snapshot(id string) Field {
	return String("snapshot_id", id)
}

func Backend(name string) Field {
	return String("backend", name)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}

func Coordinates(c [3]float64) Field {
	return String("coordinates", fmt.Sprintf("(%g, %g, %g)", c[0], c[1], c[2]))
}
