// Package config reads the lending configuration from the environment and builds the database connections.
//
// Values come from environment variables, optionally preloaded from .env files, and are validated
// before use. Connection factories apply pool settings tuned for the lending workload.
package config
