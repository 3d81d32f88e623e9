// Package gitrepo answers read-only questions about git repositories and
// parses remote URLs into owner/repository identifiers.
package gitrepo
