package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gitmaxer/gitmaxer-bot/pkg/config"
	"github.com/gitmaxer/gitmaxer-bot/pkg/content"
	"github.com/gitmaxer/gitmaxer-bot/pkg/db"
	"github.com/gitmaxer/gitmaxer-bot/pkg/hosting"
	"github.com/gitmaxer/gitmaxer-bot/pkg/lock"
	"github.com/gitmaxer/gitmaxer-bot/pkg/quota"
	"github.com/gitmaxer/gitmaxer-bot/pkg/report"
	"github.com/gitmaxer/gitmaxer-bot/pkg/schedule"
	"github.com/google/uuid"
)

const (
	DefaultRepoName        = "auto-contributions"
	DefaultRepoDescription = "Auto-generated contributions by GitMaxer"
)

var (
	ErrConfiguration = errors.New("configuration fault")
	ErrMissingToken  = errors.New("no access token stored")
)

// Store is the record store a tick reads and writes.
type Store interface {
	ActiveUsers(ctx context.Context) ([]db.UserSettings, error)
	UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]any) error
	InsertHistory(ctx context.Context, record *db.GeneratedHistory) error
	ActiveProject(ctx context.Context, userID uuid.UUID) (*db.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

// Locker guards a tick against a concurrent tick in another process.
type Locker interface {
	Acquire(ctx context.Context) (release func(), acquired bool, err error)
}

// Dispatcher runs every track for every active user, once per tick.
type Dispatcher struct {
	Store     Store
	Hosting   hosting.Provider
	Generator content.Generator
	Window    schedule.Window
	Ledger    quota.Ledger
	// Locker serializes ticks across processes. Ticks within one process
	// are always serialized.
	Locker    Locker

	DefaultRepoName string
	RepoDescription string

	// ConfigErr, when set, fails every tick before any user is processed.
	ConfigErr error

	Tracks []Track
	Picker content.Picker
	Now    func() time.Time

	running sync.Mutex
}

func NewDispatcher(cfg config.Config, store Store, provider hosting.Provider, generator content.Generator) (*Dispatcher, error) {
	window, err := schedule.NewWindow(cfg.Schedule.Timezone, cfg.Schedule.WindowStartHour, cfg.Schedule.WindowEndHour)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		Store:           store,
		Hosting:         provider,
		Generator:       generator,
		Window:          window,
		Ledger:          quota.Ledger{OwnerUsername: cfg.GitHub.OwnerUsername},
		DefaultRepoName: cfg.GitHub.DefaultRepoName,
		RepoDescription: cfg.GitHub.RepoDescription,
	}, nil
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dispatcher) locker() Locker {
	if d.Locker != nil {
		return d.Locker
	}
	return lock.NopLocker{}
}

func (d *Dispatcher) picker() content.Picker {
	if d.Picker != nil {
		return d.Picker
	}
	return content.RandomPicker
}

func (d *Dispatcher) tracks() []Track {
	if d.Tracks != nil {
		return d.Tracks
	}
	return DefaultTracks()
}

func (d *Dispatcher) repoName() string {
	if strings.TrimSpace(d.DefaultRepoName) != "" {
		return d.DefaultRepoName
	}
	return DefaultRepoName
}

func (d *Dispatcher) description() string {
	if strings.TrimSpace(d.RepoDescription) != "" {
		return d.RepoDescription
	}
	return DefaultRepoDescription
}

func (d *Dispatcher) checkConfig() error {
	var missing []string
	if d.Store == nil {
		missing = append(missing, "store")
	}
	if d.Hosting == nil {
		missing = append(missing, "hosting provider")
	}
	if d.Generator == nil {
		missing = append(missing, "content generator")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not configured", ErrConfiguration, strings.Join(missing, ", "))
	}
	if d.ConfigErr != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, d.ConfigErr)
	}
	return nil
}

// Run executes one tick. The returned error is non-nil only for faults that
// stopped the whole tick; per-user and per-track faults are report lines.
func (d *Dispatcher) Run(ctx context.Context) (*report.Report, error) {
	rep := report.New()
	if err := d.checkConfig(); err != nil {
		rep.Fail(err)
		return rep, err
	}

	if !d.running.TryLock() {
		rep.Addf("tick already in progress, skipping")
		return rep, nil
	}
	defer d.running.Unlock()

	release, acquired, err := d.locker().Acquire(ctx)
	switch {
	case err != nil:
		rep.Warnf("tick lock unavailable, continuing unguarded: %v", err)
	case !acquired:
		rep.Addf("tick already in progress, skipping")
		return rep, nil
	default:
		defer release()
	}

	now := d.now()
	rep.Addf("tick started at %s", now.UTC().Format(time.RFC3339))

	users, err := d.Store.ActiveUsers(ctx)
	if err != nil {
		err = fmt.Errorf("load active users: %w", err)
		rep.Fail(err)
		return rep, err
	}
	rep.Addf("%d active user(s)", len(users))

	for i := range users {
		if err := ctx.Err(); err != nil {
			rep.Fail(err)
			return rep, err
		}
		d.processUser(ctx, &users[i], now, rep)
	}

	rep.Addf("tick finished with %d error(s)", rep.Count(report.Error))
	return rep, nil
}

func userLabel(user *db.UserSettings) string {
	if user.GithubUsername != "" {
		return user.GithubUsername
	}
	return user.ID.String()
}

// processUser isolates one user's faults from the rest of the tick.
func (d *Dispatcher) processUser(ctx context.Context, user *db.UserSettings, now time.Time, rep *report.Report) {
	label := userLabel(user)
	defer func() {
		if v := recover(); v != nil {
			rep.Errorf("user %s: unexpected failure: %v", label, v)
		}
	}()
	if err := d.runUser(ctx, user, now, rep); err != nil {
		rep.Errorf("user %s: %v", label, err)
	}
}

func (d *Dispatcher) runUser(ctx context.Context, user *db.UserSettings, now time.Time, rep *report.Report) error {
	token := strings.TrimSpace(user.Token())
	if token == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(user.GithubUsername) == "" {
		return errors.New("no hosting username stored")
	}

	if d.Ledger.DailyRollover(user, now) {
		if err := d.Store.UpdateUser(ctx, user.ID, quota.RolloverFields(user)); err != nil {
			return fmt.Errorf("persist daily rollover: %w", err)
		}
	}

	r := &run{
		d:        d,
		user:     user,
		label:    userLabel(user),
		client:   d.Hosting.ForToken(token),
		now:      now,
		report:   rep,
		language: content.ResolveLanguage(user.PreferredLanguage, d.picker()),
	}
	for _, track := range d.tracks() {
		r.runTrack(ctx, track)
	}
	return nil
}
