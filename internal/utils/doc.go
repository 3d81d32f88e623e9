// Package utils exposes logging, configuration, and context helpers shared by
// every shipmate command.
package utils
