package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"certcy/career-api/internal/models"
	"certcy/career-api/internal/testutil"
)

func TestOnboardingRepositoryLatestAndEmailFallback(t *testing.T) {
	db := testutil.DB(t)
	repo := NewOnboardingRepository(db)
	ctx := context.Background()

	user := testutil.NewUser("Ana@Example.com")
	first := testutil.SeedProfile(t, db, user)

	second := &models.OnboardingProfile{UserID: user.ID, Email: user.Email, JobTitle: "Product Analyst"}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, err := repo.FindLatestByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindLatestByUser: %v", err)
	}
	if latest.ID != second.ID {
		t.Fatalf("expected latest profile %s, got %s (first %s)", second.ID, latest.ID, first.ID)
	}

	byEmail, err := repo.FindLatestByEmail(ctx, "  ana@example.com ")
	if err != nil {
		t.Fatalf("FindLatestByEmail: %v", err)
	}
	if byEmail.ID != second.ID {
		t.Fatalf("expected email lookup to find latest profile")
	}

	if _, err := repo.FindLatestByUser(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.FindLatestByEmail(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank email, got %v", err)
	}

	if err := repo.UpdateResumeText(ctx, second.ID, "resume body"); err != nil {
		t.Fatalf("UpdateResumeText: %v", err)
	}
	reloaded, _ := repo.FindLatestByUser(ctx, user.ID)
	if reloaded.ResumeText != "resume body" {
		t.Fatalf("expected resume text to be stored")
	}
}

func TestRecommendationRepositoryScopesIDsPerUser(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRecommendationRepository(db)
	ctx := context.Background()

	alice := testutil.NewUser("alice@example.com")
	bob := testutil.NewUser("bob@example.com")

	set := func() []models.CareerRecommendation {
		return []models.CareerRecommendation{
			{ID: "data-engineer", Title: "Data Engineer", Match: 80},
			{ID: "ml-engineer", Title: "ML Engineer", Match: 90},
		}
	}

	if err := repo.SaveSet(ctx, alice.ID, set(), false); err != nil {
		t.Fatalf("SaveSet alice: %v", err)
	}
	if err := repo.SaveSet(ctx, bob.ID, set(), false); err != nil {
		t.Fatalf("same slugs for another user must be accepted: %v", err)
	}

	recs, err := repo.FindByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "ml-engineer" {
		t.Fatalf("expected 2 recs ordered by match, got %+v", recs)
	}

	if _, err := repo.FindByID(ctx, alice.ID, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecommendationRepositorySaveSetIsAllOrNothing(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRecommendationRepository(db)
	ctx := context.Background()
	user := testutil.NewUser("u@example.com")

	dup := []models.CareerRecommendation{
		{ID: "same", Title: "One", Match: 80},
		{ID: "other", Title: "Two", Match: 75},
		{ID: "same", Title: "Three", Match: 70},
	}
	err := repo.SaveSet(ctx, user.ID, dup, false)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	recs, _ := repo.FindByUser(ctx, user.ID)
	if len(recs) != 0 {
		t.Fatalf("expected rollback to leave no rows, got %d", len(recs))
	}
}

func TestRecommendationRepositoryReplace(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRecommendationRepository(db)
	ctx := context.Background()
	user := testutil.NewUser("u@example.com")

	testutil.SeedRecommendation(t, db, user, "old-path")

	err := repo.SaveSet(ctx, user.ID, []models.CareerRecommendation{{ID: "new-path", Title: "New", Match: 85}}, true)
	if err != nil {
		t.Fatalf("SaveSet replace: %v", err)
	}

	recs, _ := repo.FindByUser(ctx, user.ID)
	if len(recs) != 1 || recs[0].ID != "new-path" {
		t.Fatalf("expected only the new set, got %+v", recs)
	}
}

func TestTestRepositoryUniquePerUserAndPath(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTestRepository(db)
	ctx := context.Background()
	user := testutil.NewUser("u@example.com")

	existing := testutil.SeedTest(t, db, user, "data-engineer", 3)

	dup := &models.CareerPathTest{UserID: user.ID, CareerPathID: "data-engineer"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	found, err := repo.FindByCareerPath(ctx, user.ID, "data-engineer")
	if err != nil {
		t.Fatalf("FindByCareerPath: %v", err)
	}
	if found.ID != existing.ID {
		t.Fatalf("expected original test")
	}
	for i, q := range found.Questions {
		if q.Order != i {
			t.Fatalf("expected questions ordered by order, got %d at %d", q.Order, i)
		}
	}
}

func TestTestRepositoryOwnershipAndSubmission(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTestRepository(db)
	ctx := context.Background()
	owner := testutil.NewUser("owner@example.com")
	other := testutil.NewUser("other@example.com")

	test := testutil.SeedTest(t, db, owner, "ml-engineer", 2)

	if _, err := repo.FindByID(ctx, other.ID, test.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}

	loaded, err := repo.FindByID(ctx, owner.ID, test.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(loaded.Questions) != 2 || len(loaded.Recommendations) != 2 {
		t.Fatalf("expected questions and courses to round trip, got %+v", loaded)
	}

	responses := []models.TestResponse{
		{TestID: test.ID, QuestionID: loaded.Questions[0].ID, UserAnswer: 0, IsCorrect: true},
		{TestID: test.ID, QuestionID: loaded.Questions[1].ID, UserAnswer: 3, IsCorrect: false},
	}
	if err := repo.RecordSubmission(ctx, loaded, responses, 50); err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}
	if loaded.Score == nil || *loaded.Score != 50 || loaded.CompletedAt == nil {
		t.Fatalf("expected score and completion to be stamped, got %+v", loaded)
	}

	if count := testutil.CountResponses(t, db, test.ID); count != 2 {
		t.Fatalf("expected 2 responses, got %d", count)
	}

	if err := repo.UpdateSelectedIndex(ctx, other.ID, test.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when another user selects, got %v", err)
	}
	if err := repo.UpdateSelectedIndex(ctx, owner.ID, test.ID, 1); err != nil {
		t.Fatalf("UpdateSelectedIndex: %v", err)
	}

	tests, err := repo.ListByUser(ctx, owner.ID)
	if err != nil || len(tests) != 1 {
		t.Fatalf("ListByUser: %v len=%d", err, len(tests))
	}
	if tests[0].SelectedRoadmapIndex == nil || *tests[0].SelectedRoadmapIndex != 1 {
		t.Fatalf("expected selected index 1")
	}
}

func TestRoadmapRepositoryUpdateProgress(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRoadmapRepository(db)
	ctx := context.Background()
	user := testutil.NewUser("u@example.com")
	testID := uuid.New()

	roadmap := testutil.SeedRoadmap(t, db, user, &testID, 2, 2)

	roadmap.CompletedSteps = datatypes.JSONSlice[string]{"week1-activity1"}
	roadmap.SelectedPivot = datatypes.JSON(`{"week":1,"activity":2}`)
	if err := repo.UpdateProgress(ctx, roadmap); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	loaded, err := repo.FindLatestByTest(ctx, user.ID, testID)
	if err != nil {
		t.Fatalf("FindLatestByTest: %v", err)
	}
	if loaded.Progress != 25 {
		t.Fatalf("expected progress 25, got %d", loaded.Progress)
	}
	var pivot map[string]int
	if err := json.Unmarshal(loaded.SelectedPivot, &pivot); err != nil || pivot["activity"] != 2 {
		t.Fatalf("expected pivot to round trip, got %s (%v)", loaded.SelectedPivot, err)
	}

	loaded.SelectedPivot = nil
	if err := repo.UpdateProgress(ctx, loaded); err != nil {
		t.Fatalf("UpdateProgress clear: %v", err)
	}
	cleared, _ := repo.FindByID(ctx, user.ID, roadmap.ID)
	if cleared.HasPivot() {
		t.Fatalf("expected pivot to be cleared, got %s", cleared.SelectedPivot)
	}

	other := testutil.NewUser("other@example.com")
	if _, err := repo.FindByID(ctx, other.ID, roadmap.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
	cleared.UserID = other.ID
	if err := repo.UpdateProgress(ctx, cleared); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating another user's roadmap, got %v", err)
	}
}

func TestResumeDocumentRepository(t *testing.T) {
	db := testutil.DB(t)
	repo := NewResumeDocumentRepository(db)
	ctx := context.Background()
	user := testutil.NewUser("u@example.com")

	doc := &models.ResumeDocument{UserID: user.ID, Filename: "resume_1.pdf", OriginalFileName: "cv.pdf", PageCount: 2}
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, err := repo.FindLatestByUser(ctx, user.ID)
	if err != nil || latest.ID != doc.ID {
		t.Fatalf("FindLatestByUser: %v", err)
	}
}
