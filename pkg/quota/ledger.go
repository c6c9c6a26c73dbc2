package quota

import (
	"fmt"
	"strings"
	"time"

	"github.com/gitmaxer/gitmaxer-bot/pkg/db"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanLeetcode   Plan = "leetcode"
	PlanEnterprise Plan = "enterprise"
	PlanOwner      Plan = "owner"
)

const (
	FreeCadence        = 7 * 24 * time.Hour
	PaidDailyAllowance = 1
	SecondaryDailyCap  = 1
)

const dateLayout = "2006-01-02"

// ParsePlan maps a stored plan_type onto a Plan. Empty and unknown values
// fall back to the free tier.
func ParsePlan(value string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(value))) {
	case PlanPro:
		return PlanPro
	case PlanLeetcode:
		return PlanLeetcode
	case PlanEnterprise:
		return PlanEnterprise
	case PlanOwner:
		return PlanOwner
	default:
		return PlanFree
	}
}

type Decision struct {
	Allowed bool
	Reason  string
}

func allow(format string, args ...any) Decision {
	return Decision{Allowed: true, Reason: fmt.Sprintf(format, args...)}
}

func deny(format string, args ...any) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// Ledger applies the per-plan entitlement rules. All calendar arithmetic is
// done in UTC.
type Ledger struct {
	OwnerUsername string
}

func (l Ledger) IsOwner(user *db.UserSettings) bool {
	if ParsePlan(user.PlanType) == PlanOwner {
		return true
	}
	owner := strings.TrimSpace(l.OwnerUsername)
	return owner != "" && strings.EqualFold(owner, strings.TrimSpace(user.GithubUsername))
}

func utcDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// asOf is the UTC day the stored counters belong to.
func asOf(user *db.UserSettings) string {
	if user.LedgerDate != "" {
		return user.LedgerDate
	}
	if user.LastCommitTS != nil {
		return utcDate(*user.LastCommitTS)
	}
	return ""
}

// DailyRollover zeroes both daily counters the first time it observes a new
// UTC day and reports whether the user changed. Calling it again on the same
// day is a no-op.
func (l Ledger) DailyRollover(user *db.UserSettings, now time.Time) bool {
	today := utcDate(now)
	if asOf(user) == today {
		return false
	}
	user.DailyCommitCount = 0
	user.LeetcodeDailyCount = 0
	user.LedgerDate = today
	return true
}

func RolloverFields(user *db.UserSettings) map[string]any {
	return map[string]any{
		"daily_commit_count":   user.DailyCommitCount,
		"leetcode_daily_count": user.LeetcodeDailyCount,
		"ledger_date":          user.LedgerDate,
	}
}

// RegularTrackAllowed decides whether the daily content track may commit,
// given how many contributions the primary repository already has today.
func (l Ledger) RegularTrackAllowed(user *db.UserSettings, todayCount int, now time.Time) Decision {
	if todayCount >= user.MinContributions {
		return deny("already has %d contribution(s) today, target %d", todayCount, user.MinContributions)
	}
	if l.IsOwner(user) {
		return allow("owner account, no quota applies")
	}

	switch ParsePlan(user.PlanType) {
	case PlanFree:
		if user.LastCommitTS == nil {
			return allow("free plan, first contribution")
		}
		elapsed := now.UTC().Sub(user.LastCommitTS.UTC())
		if elapsed >= FreeCadence {
			return allow("free plan, last contribution %s ago", elapsed.Truncate(time.Hour))
		}
		next := user.LastCommitTS.UTC().Add(FreeCadence)
		return deny("free plan allows one contribution per week, next after %s", next.Format(time.RFC3339))
	default:
		if user.DailyCommitCount < PaidDailyAllowance {
			return allow("%s plan, %d of %d used today", ParsePlan(user.PlanType), user.DailyCommitCount, PaidDailyAllowance)
		}
		return deny("%s plan daily allowance used (%d/%d)", ParsePlan(user.PlanType), user.DailyCommitCount, PaidDailyAllowance)
	}
}

// SecondaryTrackApplies reports whether the practice track is configured
// for the user at all.
func (l Ledger) SecondaryTrackApplies(user *db.UserSettings) bool {
	if ParsePlan(user.PlanType) != PlanLeetcode && !l.IsOwner(user) {
		return false
	}
	return user.LeetcodeRepoName != nil && strings.TrimSpace(*user.LeetcodeRepoName) != ""
}

func (l Ledger) SecondaryTrackAllowed(user *db.UserSettings) Decision {
	if !l.SecondaryTrackApplies(user) {
		return deny("practice track not enabled")
	}
	if l.IsOwner(user) {
		return allow("owner account, %d practice commit(s) today", user.LeetcodeDailyCount)
	}
	if user.LeetcodeDailyCount < SecondaryDailyCap {
		return allow("%d of %d practice commit(s) used today", user.LeetcodeDailyCount, SecondaryDailyCap)
	}
	return deny("practice allowance used (%d/%d)", user.LeetcodeDailyCount, SecondaryDailyCap)
}

func (l Ledger) ProjectTrackApplies(user *db.UserSettings) bool {
	return ParsePlan(user.PlanType) == PlanEnterprise || l.IsOwner(user)
}

// RecordRegularCommit stamps the commit on the user and returns the columns
// to persist.
func RecordRegularCommit(user *db.UserSettings, now time.Time) map[string]any {
	ts := now.UTC()
	user.LastCommitTS = &ts
	user.DailyCommitCount++
	user.LedgerDate = utcDate(ts)
	return map[string]any{
		"last_commit_ts":     ts,
		"daily_commit_count": user.DailyCommitCount,
		"ledger_date":        user.LedgerDate,
	}
}

func RecordSecondaryCommit(user *db.UserSettings) map[string]any {
	user.LeetcodeDailyCount++
	return map[string]any{
		"leetcode_daily_count": user.LeetcodeDailyCount,
	}
}

// ProjectAdvancedToday reports whether the project already moved forward on
// the UTC day of now.
func ProjectAdvancedToday(project *db.Project, now time.Time) bool {
	return project.LastCommitAt != nil && utcDate(*project.LastCommitAt) == utcDate(now)
}

// AdvanceProject moves the cursor one day and completes the project when the
// cursor reaches its duration.
func AdvanceProject(project *db.Project, now time.Time) map[string]any {
	ts := now.UTC()
	project.CurrentDay++
	project.CommitCount++
	project.LastCommitAt = &ts
	if project.CurrentDay >= project.DaysDuration {
		project.Status = db.ProjectStatusCompleted
	}
	return map[string]any{
		"current_day":    project.CurrentDay,
		"commit_count":   project.CommitCount,
		"last_commit_at": ts,
		"status":         project.Status,
	}
}
