// Package config loads and validates the gateway's YAML configuration.
//
// Secrets never live in the file itself: ${VAR_NAME} references are
// expanded from the environment before parsing, so a checked-in config
// can point at API keys and the JWT secret without containing them.
// Validation runs at load time and startup fails fast on a bad config.
package config
