// Package config defines the monitor settings and provides helpers to load,
// validate and save them in YAML format.
//
// Secrets may be left out of the file and supplied through environment
// variables instead (see ApplyEnv).
package config
