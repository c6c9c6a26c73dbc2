package hosting

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("repository not found")
	ErrEmptyRepository = errors.New("repository has no history yet")
)

type Repo struct {
	Owner         string
	Name          string
	Private       bool
	DefaultBranch string
}

func (r Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

// Client is the slice of the hosting provider the engine uses, bound to one
// user's credential.
type Client interface {
	GetRepo(ctx context.Context, fullName string) (*Repo, error)
	CreateRepo(ctx context.Context, name string, private bool, description string) (*Repo, error)
	CommitCount(ctx context.Context, repo *Repo, since time.Time) (int, error)
	CreateFile(ctx context.Context, repo *Repo, path, message string, content []byte, branch string) error
}

type Provider interface {
	ForToken(token string) Client
}

// ContributionsToday counts commits on repo since the given instant. A
// repository without history counts as zero.
func ContributionsToday(ctx context.Context, client Client, repo *Repo, since time.Time) (int, error) {
	count, err := client.CommitCount(ctx, repo, since)
	if errors.Is(err, ErrEmptyRepository) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count commits on %s: %w", repo.FullName(), err)
	}
	return count, nil
}

func SplitFullName(fullName string) (string, string, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository name %q", fullName)
	}
	return owner, name, nil
}

var unsafeRepoChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// SanitizeRepoName lower-cases name and collapses every run of characters
// the provider rejects into a dash. An empty result yields fallback.
func SanitizeRepoName(name, fallback string) string {
	slug := unsafeRepoChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = strings.Trim(slug, "-.")
	if slug == "" {
		return fallback
	}
	return slug
}
