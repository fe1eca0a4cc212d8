package env

import (
	"os"
	"strings"
)

// Get reads key from the process environment. Unset or blank values fall
// back to def so callers never see whitespace-only settings.
func Get(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return def
	}
	return val
}
