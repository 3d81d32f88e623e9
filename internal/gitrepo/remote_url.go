package gitrepo

import (
	"fmt"
	"regexp"
)

const (
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "could not extract owner and repository from remote url"
)

// ownerRepositoryPattern recognizes both SSH (git@host:owner/repo.git) and
// HTTPS (https://host/owner/repo.git) remote forms.
var ownerRepositoryPattern = regexp.MustCompile(`[^@/]+[:/]([^/]+)/([^/]+?)(?:\.git)?$`)

// OwnerRepository identifies a remote repository by its owner and name.
type OwnerRepository struct {
	Owner      string
	Repository string
}

// Slug renders the owner/repository pair in the form expected by the GitHub CLI.
func (identifier OwnerRepository) Slug() string {
	return identifier.Owner + "/" + identifier.Repository
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseOwnerRepository extracts the owner and repository name from a git remote URL.
func ParseOwnerRepository(remoteURL string) (OwnerRepository, error) {
	matches := ownerRepositoryPattern.FindStringSubmatch(remoteURL)
	if matches == nil {
		return OwnerRepository{}, RemoteURLParseError{Input: remoteURL, Message: invalidRemoteURLMessageConstant}
	}
	return OwnerRepository{Owner: matches[1], Repository: matches[2]}, nil
}
