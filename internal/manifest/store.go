package manifest

import (
	"fmt"
	"os"
	"regexp"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	manifestParseErrorTemplateConstant = "manifest %s: %s"
	manifestWriteErrorTemplateConstant = "manifest %s: %s"
	manifestReadFailedMessageConstant  = "could not read file"
	versionFieldMissingMessageConstant = "project version field missing or malformed"
	versionFieldAbsentMessageConstant  = "no top-level version assignment to rewrite"
	manifestFilePermissionsConstant    = 0o644
	versionAssignmentTemplateConstant  = `${1}"%s"`
)

// versionAssignmentPattern matches the first top-level `version = "..."`
// assignment; indented table entries are not considered top-level.
var versionAssignmentPattern = regexp.MustCompile(`(?m)^(version\s*=\s*)"[^"]*"`)

// ManifestParseError indicates the manifest could not be read or its version field is malformed.
type ManifestParseError struct {
	Path    string
	Message string
}

// Error describes the parse failure.
func (parseError ManifestParseError) Error() string {
	return fmt.Sprintf(manifestParseErrorTemplateConstant, parseError.Path, parseError.Message)
}

// ManifestWriteError indicates the manifest version assignment could not be rewritten.
type ManifestWriteError struct {
	Path    string
	Message string
}

// Error describes the write failure.
func (writeError ManifestWriteError) Error() string {
	return fmt.Sprintf(manifestWriteErrorTemplateConstant, writeError.Path, writeError.Message)
}

// Store reads and rewrites the authoritative version field of a project manifest.
// The manifest is a TOML document carrying `version = "X.Y.Z"` under its
// `[project]` table.
type Store struct{}

// NewStore constructs a manifest store.
func NewStore() *Store {
	return &Store{}
}

type manifestDocument struct {
	Project struct {
		Version string `toml:"version"`
	} `toml:"project"`
}

// ReadVersion extracts the project version from the manifest.
func (store *Store) ReadVersion(manifestPath string) (Version, error) {
	manifestContent, readError := os.ReadFile(manifestPath)
	if readError != nil {
		return Version{}, ManifestParseError{Path: manifestPath, Message: manifestReadFailedMessageConstant}
	}

	var document manifestDocument
	if decodeError := toml.Unmarshal(manifestContent, &document); decodeError != nil {
		return Version{}, ManifestParseError{Path: manifestPath, Message: decodeError.Error()}
	}

	parsedVersion, parseError := ParseVersion(document.Project.Version)
	if parseError != nil {
		return Version{}, ManifestParseError{Path: manifestPath, Message: versionFieldMissingMessageConstant}
	}
	return parsedVersion, nil
}

// WriteVersion replaces the first top-level version assignment in place,
// preserving the rest of the manifest byte for byte. It never creates the
// assignment when none exists.
func (store *Store) WriteVersion(manifestPath string, version Version) error {
	manifestContent, readError := os.ReadFile(manifestPath)
	if readError != nil {
		return ManifestWriteError{Path: manifestPath, Message: manifestReadFailedMessageConstant}
	}

	replaced := false
	updatedContent := versionAssignmentPattern.ReplaceAllStringFunc(string(manifestContent), func(match string) string {
		if replaced {
			return match
		}
		replaced = true
		return versionAssignmentPattern.ReplaceAllString(match, fmt.Sprintf(versionAssignmentTemplateConstant, version.String()))
	})
	if !replaced {
		return ManifestWriteError{Path: manifestPath, Message: versionFieldAbsentMessageConstant}
	}

	if writeError := os.WriteFile(manifestPath, []byte(updatedContent), manifestFilePermissionsConstant); writeError != nil {
		return ManifestWriteError{Path: manifestPath, Message: writeError.Error()}
	}
	return nil
}
