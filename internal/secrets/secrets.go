package secrets

import "github.com/joho/godotenv"

// Bootstrap loads secrets from a .env file into the process environment.
// It runs before configuration is read, so viper's env override picks
// the values up. A missing file is fine; credentials may already be in
// the environment (container secrets, CI).
func Bootstrap() {
	// Load never overrides variables that are already set.
	_ = godotenv.Load()
}
