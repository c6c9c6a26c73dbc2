package quota

import (
	"strings"
	"testing"
	"time"

	"github.com/gitmaxer/gitmaxer-bot/pkg/db"
)

var testNow = time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}

func TestParsePlan(t *testing.T) {
	cases := map[string]Plan{
		"":           PlanFree,
		"FREE":       PlanFree,
		"pro":        PlanPro,
		" LeetCode ": PlanLeetcode,
		"enterprise": PlanEnterprise,
		"owner":      PlanOwner,
		"platinum":   PlanFree,
	}
	for input, want := range cases {
		if got := ParsePlan(input); got != want {
			t.Fatalf("ParsePlan(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFreePlanWeeklyCadence(t *testing.T) {
	l := Ledger{OwnerUsername: "boss"}
	for _, age := range []time.Duration{0, time.Hour, 3 * 24 * time.Hour, FreeCadence - time.Second} {
		user := &db.UserSettings{
			PlanType:         "free",
			MinContributions: 5,
			LastCommitTS:     timePtr(testNow.Add(-age)),
			DailyCommitCount: 0,
		}
		if d := l.RegularTrackAllowed(user, 0, testNow); d.Allowed {
			t.Fatalf("free user with commit %s ago should be denied", age)
		}
	}

	user := &db.UserSettings{PlanType: "free", MinContributions: 1, LastCommitTS: timePtr(testNow.Add(-FreeCadence))}
	if d := l.RegularTrackAllowed(user, 0, testNow); !d.Allowed {
		t.Fatalf("free user after 7 days should be allowed: %s", d.Reason)
	}

	first := &db.UserSettings{PlanType: "", MinContributions: 1}
	if d := l.RegularTrackAllowed(first, 0, testNow); !d.Allowed {
		t.Fatalf("free user without history should be allowed: %s", d.Reason)
	}
}

func TestPaidPlanDailyCounter(t *testing.T) {
	l := Ledger{}
	for _, plan := range []string{"pro", "leetcode", "enterprise"} {
		for count := 0; count < 4; count++ {
			for today := 0; today < 3; today++ {
				user := &db.UserSettings{
					PlanType:         plan,
					MinContributions: 3,
					DailyCommitCount: count,
					LastCommitTS:     timePtr(testNow.Add(-time.Minute)),
				}
				got := l.RegularTrackAllowed(user, today, testNow).Allowed
				want := count < 1
				if got != want {
					t.Fatalf("plan=%s count=%d today=%d: got %v want %v", plan, count, today, got, want)
				}
			}
		}
	}
}

func TestTallyTargetMetDeniesEveryone(t *testing.T) {
	l := Ledger{OwnerUsername: "boss"}
	owner := &db.UserSettings{GithubUsername: "Boss", MinContributions: 1}
	d := l.RegularTrackAllowed(owner, 1, testNow)
	if d.Allowed {
		t.Fatalf("target met should deny even the owner")
	}
	if !strings.Contains(d.Reason, "already has 1") {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
}

func TestOwnerBypassesQuota(t *testing.T) {
	l := Ledger{OwnerUsername: "boss"}
	byName := &db.UserSettings{GithubUsername: "BOSS", PlanType: "free", MinContributions: 2, DailyCommitCount: 9, LastCommitTS: timePtr(testNow)}
	if d := l.RegularTrackAllowed(byName, 1, testNow); !d.Allowed {
		t.Fatalf("owner by username should be allowed: %s", d.Reason)
	}
	byPlan := &db.UserSettings{GithubUsername: "someone", PlanType: "owner", MinContributions: 1, DailyCommitCount: 4}
	if d := l.RegularTrackAllowed(byPlan, 0, testNow); !d.Allowed {
		t.Fatalf("owner by plan should be allowed: %s", d.Reason)
	}
	if (Ledger{}).IsOwner(&db.UserSettings{GithubUsername: ""}) {
		t.Fatalf("empty owner config must not match empty username")
	}
}

func TestDailyRolloverIdempotent(t *testing.T) {
	l := Ledger{}
	user := &db.UserSettings{
		LastCommitTS:       timePtr(testNow.Add(-24 * time.Hour)),
		DailyCommitCount:   1,
		LeetcodeDailyCount: 1,
	}

	if !l.DailyRollover(user, testNow) {
		t.Fatalf("expected first rollover of the day to change the user")
	}
	if user.DailyCommitCount != 0 || user.LeetcodeDailyCount != 0 || user.LedgerDate != "2025-06-15" {
		t.Fatalf("unexpected state after rollover %+v", user)
	}

	snapshot := *user
	if l.DailyRollover(user, testNow.Add(5*time.Hour)) {
		t.Fatalf("second rollover on the same day must be a no-op")
	}
	if *user != snapshot {
		t.Fatalf("second rollover changed the user: %+v vs %+v", user, snapshot)
	}
}

func TestDailyRolloverKeepsSecondaryCountWithinDay(t *testing.T) {
	l := Ledger{}
	user := &db.UserSettings{
		PlanType:         "leetcode",
		LeetcodeRepoName: strPtr("leetcode-solutions"),
		LastCommitTS:     timePtr(testNow.Add(-72 * time.Hour)),
	}
	l.DailyRollover(user, testNow)
	RecordSecondaryCommit(user)

	if l.DailyRollover(user, testNow.Add(time.Hour)) {
		t.Fatalf("rollover must not fire again on the same day")
	}
	if d := l.SecondaryTrackAllowed(user); d.Allowed {
		t.Fatalf("secondary cap should hold after one commit today")
	}

	if !l.DailyRollover(user, testNow.Add(24*time.Hour)) {
		t.Fatalf("expected rollover on the next day")
	}
	if d := l.SecondaryTrackAllowed(user); !d.Allowed {
		t.Fatalf("secondary track should be allowed on a new day: %s", d.Reason)
	}
}

func TestDailyRolloverUsesLastCommitDateWhenUnstamped(t *testing.T) {
	l := Ledger{}
	user := &db.UserSettings{LastCommitTS: timePtr(testNow.Add(-30 * time.Hour)), DailyCommitCount: 1}
	if !l.DailyRollover(user, testNow) {
		t.Fatalf("unstamped ledger should be stamped")
	}
	if user.DailyCommitCount != 0 {
		t.Fatalf("unexpected counter %d", user.DailyCommitCount)
	}

	rolled := &db.UserSettings{LastCommitTS: timePtr(testNow.Add(-time.Hour)), DailyCommitCount: 1}
	if l.DailyRollover(rolled, testNow) {
		t.Fatalf("commit made today means the counters already belong to today")
	}
}

func TestSecondaryTrackRules(t *testing.T) {
	l := Ledger{OwnerUsername: "boss"}

	pro := &db.UserSettings{PlanType: "pro", LeetcodeRepoName: strPtr("lc")}
	if l.SecondaryTrackApplies(pro) {
		t.Fatalf("pro plan should not get the practice track")
	}

	noRepo := &db.UserSettings{PlanType: "leetcode"}
	if l.SecondaryTrackApplies(noRepo) {
		t.Fatalf("practice track needs a repository")
	}

	lc := &db.UserSettings{PlanType: "leetcode", LeetcodeRepoName: strPtr("lc")}
	if d := l.SecondaryTrackAllowed(lc); !d.Allowed {
		t.Fatalf("expected practice track allowed: %s", d.Reason)
	}
	RecordSecondaryCommit(lc)
	if d := l.SecondaryTrackAllowed(lc); d.Allowed {
		t.Fatalf("expected practice cap of one per day")
	}

	owner := &db.UserSettings{GithubUsername: "boss", PlanType: "free", LeetcodeRepoName: strPtr("lc"), LeetcodeDailyCount: 40}
	if d := l.SecondaryTrackAllowed(owner); !d.Allowed {
		t.Fatalf("owner practice track is unbounded: %s", d.Reason)
	}
}

func TestProjectTrackApplies(t *testing.T) {
	l := Ledger{OwnerUsername: "boss"}
	if !l.ProjectTrackApplies(&db.UserSettings{PlanType: "enterprise"}) {
		t.Fatalf("enterprise should get the project track")
	}
	if !l.ProjectTrackApplies(&db.UserSettings{GithubUsername: "boss"}) {
		t.Fatalf("owner should get the project track")
	}
	if l.ProjectTrackApplies(&db.UserSettings{PlanType: "leetcode"}) {
		t.Fatalf("leetcode plan should not get the project track")
	}
}

func TestRecordRegularCommit(t *testing.T) {
	user := &db.UserSettings{DailyCommitCount: 0}
	fields := RecordRegularCommit(user, testNow)
	if user.DailyCommitCount != 1 || user.LastCommitTS == nil || !user.LastCommitTS.Equal(testNow) {
		t.Fatalf("unexpected user after record %+v", user)
	}
	if fields["daily_commit_count"] != 1 || fields["ledger_date"] != "2025-06-15" {
		t.Fatalf("unexpected persisted fields %v", fields)
	}
	if d := (Ledger{}).RegularTrackAllowed(&db.UserSettings{PlanType: "pro", MinContributions: 2, DailyCommitCount: user.DailyCommitCount}, 0, testNow); d.Allowed {
		t.Fatalf("paid plan should be denied after one recorded commit")
	}
}

func TestAdvanceProject(t *testing.T) {
	project := &db.Project{DaysDuration: 2, CurrentDay: 0, Status: db.ProjectStatusInProgress}
	if ProjectAdvancedToday(project, testNow) {
		t.Fatalf("fresh project should not count as advanced")
	}

	AdvanceProject(project, testNow)
	if project.CurrentDay != 1 || project.Status != db.ProjectStatusInProgress || project.CommitCount != 1 {
		t.Fatalf("unexpected project after first advance %+v", project)
	}
	if !ProjectAdvancedToday(project, testNow.Add(time.Hour)) {
		t.Fatalf("project should count as advanced today")
	}

	fields := AdvanceProject(project, testNow.Add(24*time.Hour))
	if project.CurrentDay != 2 || project.Status != db.ProjectStatusCompleted {
		t.Fatalf("expected completion at duration, got %+v", project)
	}
	if fields["status"] != db.ProjectStatusCompleted {
		t.Fatalf("expected completed status to be persisted, got %v", fields)
	}
}
