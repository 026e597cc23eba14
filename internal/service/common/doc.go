// Package common holds helpers shared by several services.
//
// It detects the host the monitor runs on (named in the shutdown notice) and
// guards against a second monitor instance sending duplicate alerts.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
