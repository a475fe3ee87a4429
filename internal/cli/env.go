package cli

import "os"

// FirstEnv returns the value of the first environment variable in vars that
// is set and non-empty, or the empty string. It backs the "flag defaults to
// env[NAME]" contract of the global credential flags.
func FirstEnv(vars ...string) string {
	for _, v := range vars {
		if value := os.Getenv(v); value != "" {
			return value
		}
	}
	return ""
}
