package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gitmaxer/gitmaxer-bot/pkg/content"
	"github.com/gitmaxer/gitmaxer-bot/pkg/db"
	"github.com/gitmaxer/gitmaxer-bot/pkg/hosting"
	"github.com/gitmaxer/gitmaxer-bot/pkg/quota"
	"github.com/gitmaxer/gitmaxer-bot/pkg/report"
)

// run is the per-user state shared by the tracks of one tick.
type run struct {
	d        *Dispatcher
	user     *db.UserSettings
	label    string
	client   hosting.Client
	now      time.Time
	report   *report.Report
	language string

	// Per-track state, reset before each track.
	repo       *hosting.Repo
	todayCount int
	project    *db.Project
}

// Contribution is one file to commit.
type Contribution struct {
	Path     string
	Message  string
	Content  string
	Language string
}

// Gate is one short-circuiting check between EnsureRepo and Generate.
type Gate struct {
	Name  string
	Check func(ctx context.Context, r *run) (quota.Decision, error)
}

// Track describes one contribution pipeline. Every track is executed by the
// same runner: EnsureRepo, gates in order, Compose, commit, history, Record.
type Track struct {
	Name string
	// Applies decides silently whether the track exists for the user.
	Applies func(r *run) bool
	// Prepare loads per-track state. ok=false skips the track silently.
	Prepare func(ctx context.Context, r *run) (ok bool, err error)
	Repo    func(r *run) (name string, private bool)
	Gates   []Gate
	Compose func(ctx context.Context, r *run) (*Contribution, error)
	// Record persists the ledger effect of a successful commit.
	Record func(ctx context.Context, r *run, c *Contribution) error
}

func (r *run) linef(track, format string, args ...any) string {
	return fmt.Sprintf("user %s [%s]: %s", r.label, track, fmt.Sprintf(format, args...))
}

func (r *run) runTrack(ctx context.Context, t Track) {
	r.repo, r.todayCount, r.project = nil, 0, nil
	defer func() {
		if v := recover(); v != nil {
			r.report.Errorf("%s", r.linef(t.Name, "unexpected failure: %v", v))
		}
	}()

	if t.Applies != nil && !t.Applies(r) {
		return
	}
	if t.Prepare != nil {
		ok, err := t.Prepare(ctx, r)
		if err != nil {
			r.report.Errorf("%s", r.linef(t.Name, "%v", err))
			return
		}
		if !ok {
			return
		}
	}

	name, private := t.Repo(r)
	created, err := r.ensureRepo(ctx, name, private)
	if err != nil {
		r.report.Errorf("%s", r.linef(t.Name, "repository %s unavailable: %v", name, err))
		return
	}
	if created {
		r.report.Addf("%s", r.linef(t.Name, "created repository %s, skipping until next tick", r.repo.FullName()))
		return
	}

	for _, gate := range t.Gates {
		decision, err := gate.Check(ctx, r)
		if err != nil {
			r.report.Warnf("%s", r.linef(t.Name, "skipped at %s: %v", gate.Name, err))
			return
		}
		if !decision.Allowed {
			r.report.Addf("%s", r.linef(t.Name, "skipped at %s: %s", gate.Name, decision.Reason))
			return
		}
	}

	c, err := t.Compose(ctx, r)
	if err != nil {
		r.report.Errorf("%s", r.linef(t.Name, "generation failed: %v", err))
		return
	}

	if err := r.client.CreateFile(ctx, r.repo, c.Path, c.Message, []byte(c.Content), r.repo.DefaultBranch); err != nil {
		r.report.Errorf("%s", r.linef(t.Name, "commit failed: %v", err))
		return
	}
	r.report.Addf("%s", r.linef(t.Name, "committed %s to %s", c.Path, r.repo.FullName()))

	history := &db.GeneratedHistory{
		UserID:         r.user.ID,
		ContentSnippet: content.Snippet(c.Content, 100),
		Language:       c.Language,
		ContentHash:    content.Hash(c.Content),
		RepoName:       r.repo.FullName(),
		Track:          t.Name,
	}
	if err := r.d.Store.InsertHistory(ctx, history); err != nil {
		r.report.Warnf("%s", r.linef(t.Name, "history not recorded: %v", err))
	}

	if t.Record != nil {
		if err := t.Record(ctx, r, c); err != nil {
			r.report.Warnf("%s", r.linef(t.Name, "ledger update failed after commit: %v", err))
		}
	}
}

// ensureRepo looks the repository up and creates it when missing. created
// reports whether it did not exist before this call.
func (r *run) ensureRepo(ctx context.Context, name string, private bool) (bool, error) {
	fullName := r.user.GithubUsername + "/" + name
	repo, err := r.client.GetRepo(ctx, fullName)
	if err == nil {
		r.repo = repo
		return false, nil
	}
	if !errors.Is(err, hosting.ErrNotFound) {
		return false, err
	}
	repo, err = r.client.CreateRepo(ctx, name, private, r.d.description())
	if err != nil {
		return false, err
	}
	r.repo = repo
	return true, nil
}
