package hosting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingClient struct {
	Client
	count int
	err   error
}

func (c countingClient) CommitCount(context.Context, *Repo, time.Time) (int, error) {
	return c.count, c.err
}

func TestContributionsToday(t *testing.T) {
	repo := &Repo{Owner: "octocat", Name: "auto-contributions"}

	n, err := ContributionsToday(context.Background(), countingClient{count: 2}, repo, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = ContributionsToday(context.Background(), countingClient{err: ErrEmptyRepository}, repo, time.Now())
	assert.NoError(t, err)
	assert.Zero(t, n)

	boom := errors.New("boom")
	_, err = ContributionsToday(context.Background(), countingClient{err: boom}, repo, time.Now())
	assert.ErrorIs(t, err, boom)
}

func TestSanitizeRepoName(t *testing.T) {
	cases := map[string]string{
		"auto-contributions":   "auto-contributions",
		"My Cool Repo":         "my-cool-repo",
		"  spaced  ":           "spaced",
		"Budget API (v2)!":     "budget-api-v2",
		"dots.and_underscores": "dots.and_underscores",
		"###":                  "fallback",
		"":                     "fallback",
		"Ünïcode Name":         "n-code-name",
	}
	for input, want := range cases {
		assert.Equal(t, want, SanitizeRepoName(input, "fallback"), "input %q", input)
	}
}

func TestSplitFullName(t *testing.T) {
	owner, name, err := SplitFullName("octocat/hello")
	assert.NoError(t, err)
	assert.Equal(t, "octocat", owner)
	assert.Equal(t, "hello", name)

	for _, bad := range []string{"", "octocat", "/hello", "octocat/", "a/b/c"} {
		_, _, err := SplitFullName(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
