// Package config loads and validates MMSL tool configuration.
//
// Configuration comes from a TOML file resolved from an explicit path,
// ~/.config/mmsl/config.toml, or a project-local mmsl.toml, in that order.
// Defaults apply for anything unset; Load always normalizes and validates
// before returning, so the rest of the program never sees a half-formed
// config.
package config
