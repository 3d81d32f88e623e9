// Package manifest owns the project's authoritative semantic version: parsing
// and bumping dotted-triple versions, and reading/rewriting the single
// `version = "X.Y.Z"` assignment in the project manifest.
package manifest
