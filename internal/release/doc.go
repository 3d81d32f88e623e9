// Package release implements semantic version management for a repository:
// reading the manifest version, bumping it, regenerating the changelog from
// conventional commits, and recording the release commit and annotated tag.
package release
