// Package githubcli wraps the GitHub CLI (gh) with typed operations for
// availability probing, pull request creation, and branch protection updates.
package githubcli
