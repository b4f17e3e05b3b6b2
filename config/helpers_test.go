// ABOUTME: Test helpers for config tests
// ABOUTME: Provides utilities for environment variable management

package config

import (
	"os"
	"testing"
)

// withCleanEkaEnv clears the environment, sets required records API env vars to test
// values, and returns a cleanup function that restores the original env.
// Use with t.Cleanup().
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Cleanup(withCleanEkaEnv(t))
//	    // Environment is cleared, EKA_API_KEY, EKA_CLIENT_ID, EKA_CLIENT_SECRET are set
//	}
func withCleanEkaEnv(t *testing.T) func() {
	t.Helper()
	return withCleanEkaEnvAndExtra(t, nil)
}

// withCleanEkaEnvAndExtra clears the environment, sets required records API env vars
// plus additional vars, and returns a cleanup function that restores the
// original env. Use with t.Cleanup().
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Cleanup(withCleanEkaEnvAndExtra(t, map[string]string{
//	        "SUMMARY_PROVIDER": "openai",
//	    }))
//	}
func withCleanEkaEnvAndExtra(t *testing.T, extra map[string]string) func() {
	t.Helper()

	// Save entire environment
	originalEnv := os.Environ()

	// Clear environment for clean slate
	os.Clearenv()

	// Set required records API test values
	os.Setenv("EKA_API_KEY", "test-api-key")
	os.Setenv("EKA_CLIENT_ID", "test-client")
	os.Setenv("EKA_CLIENT_SECRET", "test-secret")

	// Set extra values
	for key, value := range extra {
		os.Setenv(key, value)
	}

	// Return cleanup function that restores original environment
	return func() {
		os.Clearenv()
		for _, env := range originalEnv {
			for i := 0; i < len(env); i++ {
				if env[i] == '=' {
					os.Setenv(env[:i], env[i+1:])
					break
				}
			}
		}
	}
}
