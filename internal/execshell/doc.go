// Package execshell provides the synchronous command-execution gateway used
// by every release workflow operation. It wraps git and the GitHub CLI behind
// a typed executor that reports non-zero exits and spawn failures as
// distinguishable errors instead of exceptions.
package execshell
