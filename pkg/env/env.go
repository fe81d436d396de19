package env

import "os"

// Get returns the named environment variable, treating unset and empty the
// same and falling back in both cases.
func Get(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}
