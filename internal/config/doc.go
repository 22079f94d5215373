// Package config loads chunkscribe settings from a TOML file and the
// environment.
//
// Load order: Default, then the file, then environment overrides, then
// normalization and validation. A missing file is not an error.
package config
