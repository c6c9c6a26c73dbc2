package hosting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

const commitsPerPage = 100

// GitHubProvider builds API clients authenticated with a user's OAuth token.
type GitHubProvider struct {
	baseURL   *url.URL
	transport http.RoundTripper
}

// NewGitHubProvider targets the public API when baseURL is empty.
func NewGitHubProvider(baseURL string) (*GitHubProvider, error) {
	p := &GitHubProvider{}
	if strings.TrimSpace(baseURL) == "" {
		return p, nil
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse github api url: %w", err)
	}
	p.baseURL = u
	return p, nil
}

// WithTransport sets the transport the token source wraps.
func (p *GitHubProvider) WithTransport(rt http.RoundTripper) *GitHubProvider {
	p.transport = rt
	return p
}

func (p *GitHubProvider) ForToken(token string) Client {
	ctx := context.Background()
	if p.transport != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: p.transport})
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	gh := github.NewClient(httpClient)
	if p.baseURL != nil {
		gh.BaseURL = p.baseURL
	}
	return &githubClient{gh: gh}
}

type githubClient struct {
	gh *github.Client
}

func statusOf(resp *github.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

func toRepo(r *github.Repository) *Repo {
	return &Repo{
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		Private:       r.GetPrivate(),
		DefaultBranch: r.GetDefaultBranch(),
	}
}

func (c *githubClient) GetRepo(ctx context.Context, fullName string) (*Repo, error) {
	owner, name, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}
	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		if statusOf(resp, err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fullName)
		}
		return nil, fmt.Errorf("get repository %s: %w", fullName, err)
	}
	return toRepo(repo), nil
}

// CreateRepo creates an auto-initialized repository for the authenticated
// user, so the new repository already carries one commit.
func (c *githubClient) CreateRepo(ctx context.Context, name string, private bool, description string) (*Repo, error) {
	repo, _, err := c.gh.Repositories.Create(ctx, "", &github.Repository{
		Name:        github.String(name),
		Description: github.String(description),
		Private:     github.Bool(private),
		AutoInit:    github.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create repository %s: %w", name, err)
	}
	return toRepo(repo), nil
}

func (c *githubClient) CommitCount(ctx context.Context, repo *Repo, since time.Time) (int, error) {
	opts := &github.CommitsListOptions{
		Since:       since.UTC(),
		ListOptions: github.ListOptions{PerPage: commitsPerPage},
	}
	total := 0
	for {
		commits, resp, err := c.gh.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			if statusOf(resp, err) == http.StatusConflict {
				return 0, ErrEmptyRepository
			}
			return 0, fmt.Errorf("list commits: %w", err)
		}
		total += len(commits)
		if resp == nil || resp.NextPage == 0 {
			return total, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *githubClient) CreateFile(ctx context.Context, repo *Repo, path, message string, content []byte, branch string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if branch != "" {
		opts.Branch = github.String(branch)
	}
	if _, _, err := c.gh.Repositories.CreateFile(ctx, repo.Owner, repo.Name, path, opts); err != nil {
		return fmt.Errorf("create %s in %s: %w", path, repo.FullName(), err)
	}
	return nil
}
