package env

import (
	"os"
	"strconv"
)

// String returns the value of the named variable, or fallback when unset
// or empty.
func String(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// Int returns the named variable parsed as an int, or fallback when
// unset or unparsable.
func Int(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Bool returns the named variable parsed as a bool, or fallback when
// unset or unparsable.
func Bool(name string, fallback bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
