package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"certcy/career-api/internal/apperr"
	"certcy/career-api/internal/models"
	"certcy/career-api/internal/repositories"
	"certcy/career-api/internal/testutil"
)

const roadmapJSON = `Here is your plan:
{
  "title": "Analytics Engineering Sprint",
  "description": "Eight focused weeks",
  "weeks": [
    {"theme":"Foundations","activities":[
      {"type":"course","title":"Intro","description":"d","estimatedTime":"2h","resource":"r"},
      {"type":"reading","title":"Docs","description":"d","estimatedTime":"1h","resource":"r"}
    ],"goals":"SQL, Modeling","outcomes":["A model"]},
    {"weekNumber":5,"theme":"Testing","activities":[
      {"type":"project","title":"Tests","description":"d","estimatedTime":"3h","resource":"r"},
      {"type":"practice","title":"CI","description":"d","estimatedTime":"1h","resource":"r"}
    ]}
  ]
}
Good luck!`

type roadmapFixture struct {
	svc  RoadmapService
	repo repositories.RoadmapRepository
	env  *testutil.Env
	user *models.UserIdentity
}

func newRoadmapFixture(t *testing.T, gen Generator) *roadmapFixture {
	t.Helper()
	env := testutil.NewEnv(t)
	repo := repositories.NewRoadmapRepository(env.DB)
	profiles := NewOnboardingService(repositories.NewOnboardingRepository(env.DB), repositories.NewResumeDocumentRepository(env.DB), nil, nil, env.Log)
	svc := NewRoadmapService(
		repo,
		repositories.NewTestRepository(env.DB),
		repositories.NewRecommendationRepository(env.DB),
		profiles,
		gen,
		nil,
		time.Second,
		env.Log,
	)
	return &roadmapFixture{svc: svc, repo: repo, env: env, user: testutil.NewUser("ana@example.com")}
}

func TestGetRoadmapGeneratesFromTestAndProfile(t *testing.T) {
	gen := newStubGenerator(roadmapJSON)
	f := newRoadmapFixture(t, gen)
	testutil.SeedProfile(t, f.env.DB, f.user)
	testutil.SeedRecommendation(t, f.env.DB, f.user, "analytics-engineer")
	test := testutil.SeedTest(t, f.env.DB, f.user, "analytics-engineer", 2)
	ctx := context.Background()

	roadmap, err := f.svc.GetRoadmap(ctx, f.user, RoadmapQuery{TestID: &test.ID})
	if err != nil {
		t.Fatalf("GetRoadmap: %v", err)
	}

	if roadmap.TotalWeeks != 2 {
		t.Fatalf("expected totalWeeks to default to the number of weeks, got %d", roadmap.TotalWeeks)
	}
	if roadmap.Weeks[0].WeekNumber != 1 || roadmap.Weeks[1].WeekNumber != 5 {
		t.Fatalf("unexpected week numbers: %d, %d", roadmap.Weeks[0].WeekNumber, roadmap.Weeks[1].WeekNumber)
	}
	if strings.Join(roadmap.Weeks[0].Goals, "|") != "SQL|Modeling" {
		t.Fatalf("expected goals string to be split, got %v", roadmap.Weeks[0].Goals)
	}
	if roadmap.TestID == nil || *roadmap.TestID != test.ID || roadmap.Progress != 0 {
		t.Fatalf("unexpected roadmap: %+v", roadmap)
	}

	prompt := gen.lastCall().prompt
	for _, want := range []string{"dbt Fundamentals", "Analytics Engineer", "learningStyle: hands-on"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, prompt)
		}
	}

	again, err := f.svc.GetRoadmap(ctx, f.user, RoadmapQuery{TestID: &test.ID})
	if err != nil {
		t.Fatalf("second GetRoadmap: %v", err)
	}
	if again.ID != roadmap.ID || gen.callCount() != 1 {
		t.Fatalf("expected existing roadmap to be returned without generation")
	}

	byID, err := f.svc.GetRoadmap(ctx, f.user, RoadmapQuery{ID: &roadmap.ID})
	if err != nil || byID.ID != roadmap.ID {
		t.Fatalf("GetRoadmap by id: %v", err)
	}
}

func TestGetRoadmapRegenerate(t *testing.T) {
	gen := newStubGenerator(roadmapJSON, roadmapJSON)
	f := newRoadmapFixture(t, gen)
	testutil.SeedProfile(t, f.env.DB, f.user)
	test := testutil.SeedTest(t, f.env.DB, f.user, "analytics-engineer", 1)
	ctx := context.Background()

	first, err := f.svc.GetRoadmap(ctx, f.user, RoadmapQuery{TestID: &test.ID})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := f.svc.GetRoadmap(ctx, f.user, RoadmapQuery{TestID: &test.ID, Regenerate: true})
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if first.ID == second.ID || gen.callCount() != 2 {
		t.Fatalf("expected a fresh roadmap on regenerate")
	}
}

func TestGetRoadmapFailures(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		gen := newStubGenerator(roadmapJSON)
		f := newRoadmapFixture(t, gen)
		_, err := f.svc.GetRoadmap(context.Background(), f.user, RoadmapQuery{})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
		if gen.callCount() != 0 {
			t.Fatalf("generator must not be called")
		}
	})

	t.Run("empty weeks", func(t *testing.T) {
		f := newRoadmapFixture(t, newStubGenerator(`{"title":"x","weeks":[]}`))
		testutil.SeedProfile(t, f.env.DB, f.user)
		_, err := f.svc.GetRoadmap(context.Background(), f.user, RoadmapQuery{})
		if apperr.KindOf(err) != apperr.KindGenerationFailed {
			t.Fatalf("expected generation failure, got %v", err)
		}
	})

	t.Run("unknown test", func(t *testing.T) {
		f := newRoadmapFixture(t, newStubGenerator(roadmapJSON))
		testutil.SeedProfile(t, f.env.DB, f.user)
		id := uuid.New()
		_, err := f.svc.GetRoadmap(context.Background(), f.user, RoadmapQuery{TestID: &id})
		if apperr.KindOf(err) != apperr.KindNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestBuildRoadmapDefaultsTotalWeeks(t *testing.T) {
	r := buildRoadmap(generatedRoadmap{Weeks: []generatedWeek{{}, {}, {}}, TotalWeeks: 0.0}, "Data Engineer")
	if r.TotalWeeks != 3 || r.Title != "Data Engineer learning roadmap" {
		t.Fatalf("unexpected defaults: %+v", r)
	}

	r = buildRoadmap(generatedRoadmap{Weeks: []generatedWeek{{}}, TotalWeeks: 12.0}, "")
	if r.TotalWeeks != 12 || r.Title != "Learning roadmap" {
		t.Fatalf("unexpected explicit total: %+v", r)
	}

	r = buildRoadmap(generatedRoadmap{}, "")
	if r.TotalWeeks != defaultTotalWeeks {
		t.Fatalf("expected %d weeks fallback, got %d", defaultTotalWeeks, r.TotalWeeks)
	}
}

func decodePatch(t *testing.T, body string) RoadmapPatch {
	t.Helper()
	var req models.RoadmapPatchRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	return RoadmapPatch{CompletedSteps: req.CompletedSteps, SelectedPivot: req.SelectedPivot}
}

func TestUpdateProgress(t *testing.T) {
	f := newRoadmapFixture(t, newStubGenerator())
	roadmap := testutil.SeedRoadmap(t, f.env.DB, f.user, nil, 3, 4)
	ctx := context.Background()

	steps := make([]string, 0, 6)
	for w := 1; w <= 3; w++ {
		steps = append(steps, models.ActivityID(w, 1), models.ActivityID(w, 2))
	}
	raw, _ := json.Marshal(append(steps, " week1-activity1 ", ""))

	updated, err := f.svc.UpdateProgress(ctx, f.user, roadmap.ID, decodePatch(t, `{"completedSteps":`+string(raw)+`,"selectedPivot":{"title":"Data PM"}}`))
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if updated.Progress != 50 || len(updated.CompletedSteps) != 6 {
		t.Fatalf("expected 6 unique steps and 50%% progress, got %d steps and %d%%", len(updated.CompletedSteps), updated.Progress)
	}

	pivot, err := f.svc.GetPivot(ctx, f.user, roadmap.ID)
	if err != nil || string(pivot) != `{"title":"Data PM"}` {
		t.Fatalf("expected stored pivot, got %s (%v)", pivot, err)
	}

	// omitted pivot and non-array steps leave state untouched
	updated, err = f.svc.UpdateProgress(ctx, f.user, roadmap.ID, decodePatch(t, `{"completedSteps":"week1-activity3"}`))
	if err != nil {
		t.Fatalf("UpdateProgress omit: %v", err)
	}
	if len(updated.CompletedSteps) != 6 {
		t.Fatalf("non-array completedSteps must be ignored")
	}
	if pivot, _ := f.svc.GetPivot(ctx, f.user, roadmap.ID); pivot == nil {
		t.Fatalf("omitted selectedPivot must not clear the pivot")
	}

	// explicit null clears
	updated, err = f.svc.UpdateProgress(ctx, f.user, roadmap.ID, decodePatch(t, `{"selectedPivot":null}`))
	if err != nil {
		t.Fatalf("UpdateProgress null: %v", err)
	}
	if updated.HasPivot() {
		t.Fatalf("expected pivot to be cleared")
	}
	if pivot, _ := f.svc.GetPivot(ctx, f.user, roadmap.ID); pivot != nil {
		t.Fatalf("expected no stored pivot, got %s", pivot)
	}
	if !updated.UpdatedAt.After(roadmap.UpdatedAt) {
		t.Fatalf("expected updatedAt to advance")
	}
}

func TestUpdateProgressIgnoresUnknownSteps(t *testing.T) {
	f := newRoadmapFixture(t, newStubGenerator())
	roadmap := testutil.SeedRoadmap(t, f.env.DB, f.user, nil, 3, 4)
	ctx := context.Background()

	steps := []string{models.ActivityID(2, 3)}
	for i := 0; i < 20; i++ {
		steps = append(steps, fmt.Sprintf("bogus-%d", i))
	}
	steps = append(steps, models.ActivityID(4, 1), models.ActivityID(1, 5))
	raw, _ := json.Marshal(steps)

	updated, err := f.svc.UpdateProgress(ctx, f.user, roadmap.ID, decodePatch(t, `{"completedSteps":`+string(raw)+`}`))
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if len(updated.CompletedSteps) != 1 || updated.CompletedSteps[0] != "week2-activity3" {
		t.Fatalf("expected only the real activity to be kept, got %v", updated.CompletedSteps)
	}
	if updated.Progress != 8 {
		t.Fatalf("expected 8%% progress, got %d", updated.Progress)
	}

	stored, _ := f.repo.FindByID(ctx, f.user.ID, roadmap.ID)
	if len(stored.CompletedSteps) != 1 || stored.Progress != 8 {
		t.Fatalf("unexpected stored roadmap: %v steps, %d%%", stored.CompletedSteps, stored.Progress)
	}
}

func TestRoadmapOwnershipIsolation(t *testing.T) {
	f := newRoadmapFixture(t, newStubGenerator())
	roadmap := testutil.SeedRoadmap(t, f.env.DB, f.user, nil, 1, 1)
	other := testutil.NewUser("mallory@example.com")
	ctx := context.Background()

	if _, err := f.svc.GetRoadmap(ctx, other, RoadmapQuery{ID: &roadmap.ID}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("GetRoadmap: expected not found, got %v", err)
	}
	if _, err := f.svc.UpdateProgress(ctx, other, roadmap.ID, decodePatch(t, `{"completedSteps":["week1-activity1"]}`)); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("UpdateProgress: expected not found, got %v", err)
	}
	if _, err := f.svc.GetPivot(ctx, other, roadmap.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("GetPivot: expected not found, got %v", err)
	}

	own, _ := f.repo.FindByID(ctx, f.user.ID, roadmap.ID)
	if len(own.CompletedSteps) != 0 {
		t.Fatalf("another user's update must not change the roadmap")
	}
}
