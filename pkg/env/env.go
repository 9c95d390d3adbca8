package env

import "os"

// Get returns the value of key, or fallback when the variable is unset
// or empty. Used during logger bootstrap before config parsing runs.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
