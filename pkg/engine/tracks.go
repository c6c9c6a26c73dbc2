package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gitmaxer/gitmaxer-bot/pkg/content"
	"github.com/gitmaxer/gitmaxer-bot/pkg/db"
	"github.com/gitmaxer/gitmaxer-bot/pkg/hosting"
	"github.com/gitmaxer/gitmaxer-bot/pkg/quota"
)

const (
	TrackRegular  = "regular"
	TrackLeetcode = "leetcode"
	TrackProject  = "project"

	defaultLeetcodeRepo = "leetcode-solutions"
	hashSuffixLen       = 8
)

// DefaultTracks returns the tracks in the order they run for each user.
func DefaultTracks() []Track {
	return []Track{RegularTrack(), LeetcodeTrack(), ProjectTrack()}
}

var windowGate = Gate{
	Name: "window",
	Check: func(_ context.Context, r *run) (quota.Decision, error) {
		due, err := r.d.Window.ShouldRunNow(r.now, r.user.CommitTime)
		if err != nil {
			return quota.Decision{}, err
		}
		if !due {
			return quota.Decision{Reason: "outside commit window"}, nil
		}
		return quota.Decision{Allowed: true}, nil
	},
}

var tallyGate = Gate{
	Name: "tally",
	Check: func(ctx context.Context, r *run) (quota.Decision, error) {
		count, err := hosting.ContributionsToday(ctx, r.client, r.repo, r.d.Window.StartOfDay(r.now))
		if err != nil {
			return quota.Decision{}, err
		}
		r.todayCount = count
		return quota.Decision{Allowed: true}, nil
	},
}

func isPrivate(visibility string) bool {
	return strings.EqualFold(strings.TrimSpace(visibility), "private")
}

func hashSuffix(text string) string {
	return content.Hash(text)[:hashSuffixLen]
}

func RegularTrack() Track {
	return Track{
		Name: TrackRegular,
		Repo: func(r *run) (string, bool) {
			return hosting.SanitizeRepoName(r.user.RepoName, r.d.repoName()), isPrivate(r.user.RepoVisibility)
		},
		Gates: []Gate{
			windowGate,
			tallyGate,
			{
				Name: "quota",
				Check: func(_ context.Context, r *run) (quota.Decision, error) {
					return r.d.Ledger.RegularTrackAllowed(r.user, r.todayCount, r.now), nil
				},
			},
		},
		Compose: func(ctx context.Context, r *run) (*Contribution, error) {
			text, err := r.d.Generator.Generate(ctx, content.Request{Kind: content.KindSnippet, Language: r.language})
			if err != nil {
				return nil, err
			}
			local := r.d.Window.Local(r.now)
			return &Contribution{
				Path: fmt.Sprintf("daily_contribution_%s_%s_%s.%s",
					local.Format("2006-01-02"), local.Format("150405"), hashSuffix(text), content.Extension(r.language)),
				Message:  "Daily contribution: " + local.Format("2006-01-02"),
				Content:  text,
				Language: r.language,
			}, nil
		},
		Record: func(ctx context.Context, r *run, _ *Contribution) error {
			return r.d.Store.UpdateUser(ctx, r.user.ID, quota.RecordRegularCommit(r.user, r.now))
		},
	}
}

func LeetcodeTrack() Track {
	return Track{
		Name:    TrackLeetcode,
		Applies: func(r *run) bool { return r.d.Ledger.SecondaryTrackApplies(r.user) },
		Repo: func(r *run) (string, bool) {
			return hosting.SanitizeRepoName(*r.user.LeetcodeRepoName, defaultLeetcodeRepo), isPrivate(r.user.RepoVisibility)
		},
		Gates: []Gate{
			windowGate,
			{
				Name: "quota",
				Check: func(_ context.Context, r *run) (quota.Decision, error) {
					return r.d.Ledger.SecondaryTrackAllowed(r.user), nil
				},
			},
		},
		Compose: func(ctx context.Context, r *run) (*Contribution, error) {
			problem, lang := content.PickProblem(r.d.picker())
			text, err := r.d.Generator.Generate(ctx, content.Request{
				Kind:     content.KindLeetcode,
				Language: lang,
				Vars: map[string]string{
					"ProblemID":  strconv.Itoa(problem.ID),
					"Title":      problem.Title,
					"Difficulty": problem.Difficulty,
					"Category":   problem.Category,
				},
			})
			if err != nil {
				return nil, err
			}
			local := r.d.Window.Local(r.now)
			return &Contribution{
				Path: fmt.Sprintf("solutions/%s/solution_%s_%s.%s",
					problem.Slug(), local.Format("20060102"), hashSuffix(text), content.Extension(lang)),
				Message:  fmt.Sprintf("LeetCode #%d: %s (%s)", problem.ID, problem.Title, problem.Difficulty),
				Content:  text,
				Language: lang,
			}, nil
		},
		Record: func(ctx context.Context, r *run, _ *Contribution) error {
			return r.d.Store.UpdateUser(ctx, r.user.ID, quota.RecordSecondaryCommit(r.user))
		},
	}
}

func ProjectTrack() Track {
	return Track{
		Name:    TrackProject,
		Applies: func(r *run) bool { return r.d.Ledger.ProjectTrackApplies(r.user) },
		Prepare: func(ctx context.Context, r *run) (bool, error) {
			project, err := r.d.Store.ActiveProject(ctx, r.user.ID)
			if err != nil {
				return false, fmt.Errorf("load active project: %w", err)
			}
			r.project = project
			return project != nil, nil
		},
		Repo: func(r *run) (string, bool) {
			fallback := hosting.SanitizeRepoName(r.project.ProjectName, "project")
			return hosting.SanitizeRepoName(r.project.RepoName, fallback), isPrivate(r.user.RepoVisibility)
		},
		Gates: []Gate{
			windowGate,
			{
				Name: "progress",
				Check: func(_ context.Context, r *run) (quota.Decision, error) {
					p := r.project
					if p.CurrentDay >= p.DaysDuration {
						return quota.Decision{Reason: fmt.Sprintf("all %d days already built", p.DaysDuration)}, nil
					}
					if quota.ProjectAdvancedToday(p, r.now) {
						return quota.Decision{Reason: fmt.Sprintf("day %d already built today", p.CurrentDay)}, nil
					}
					return quota.Decision{Allowed: true}, nil
				},
			},
		},
		Compose: func(ctx context.Context, r *run) (*Contribution, error) {
			p := r.project
			lang, ok := content.LanguageFromStack(p.TechStack)
			if !ok {
				lang = r.language
			}
			day := p.CurrentDay + 1
			text, err := r.d.Generator.Generate(ctx, content.Request{
				Kind:     content.KindProject,
				Language: lang,
				Vars: map[string]string{
					"ProjectName": p.ProjectName,
					"Description": p.ProjectDescription,
					"TechStack":   p.TechStack,
					"Day":         strconv.Itoa(day),
					"TotalDays":   strconv.Itoa(p.DaysDuration),
				},
			})
			if err != nil {
				return nil, err
			}
			return &Contribution{
				Path:     fmt.Sprintf("day-%02d/day_%02d_%s.%s", day, day, hashSuffix(text), content.Extension(lang)),
				Message:  fmt.Sprintf("%s: day %d of %d", p.ProjectName, day, p.DaysDuration),
				Content:  text,
				Language: lang,
			}, nil
		},
		Record: func(ctx context.Context, r *run, _ *Contribution) error {
			fields := quota.AdvanceProject(r.project, r.now)
			if err := r.d.Store.UpdateProject(ctx, r.project.ID, fields); err != nil {
				return err
			}
			if r.project.Status == db.ProjectStatusCompleted {
				r.report.Addf("%s", r.linef(TrackProject, "project %q completed after %d days", r.project.ProjectName, r.project.CurrentDay))
			}
			return nil
		},
	}
}
