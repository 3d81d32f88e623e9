// Package conventional parses git history into classified conventional-commit
// records used for changelog synthesis.
package conventional
