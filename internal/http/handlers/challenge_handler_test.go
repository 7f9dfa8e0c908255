package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/http/middleware"
	"github.com/tbourn/go-challenge-backend/internal/services"
)

func TestListChallenges_FiltersAndSorts(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/challenges", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[ListChallengesResponse](t, w); got.Total != 7 {
		t.Fatalf("total=%d want 7", got.Total)
	}

	w = h.do(t, http.MethodGet, "/challenges?category=Educational&sortType=points", "", nil)
	got := decode[ListChallengesResponse](t, w)
	if got.Total != 2 || got.Challenges[0].ID != "7" || got.Challenges[1].ID != "1" {
		t.Fatalf("unexpected educational list: %+v", got.Challenges)
	}

	w = h.do(t, http.MethodGet, "/challenges?sortType=nonsense", "", nil)
	expectError(t, w, http.StatusBadRequest, ErrCodeInvalidInput)

	// Connection filters need someone to connect to.
	w = h.do(t, http.MethodGet, "/challenges?userConnectionType=author", "", nil)
	expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)

	w = h.do(t, http.MethodGet, "/challenges?userConnectionType=author", "user1", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[ListChallengesResponse](t, w); got.Total != 2 {
		t.Fatalf("user1 authored %d, want 2", got.Total)
	}
}

func TestGetChallenge(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/challenges/1", "", nil)
	expectStatus(t, w, http.StatusOK)
	d := decode[services.ChallengeDetails](t, w)
	if d.Challenge.Title != "30 Days of Coding" || len(d.Comments) != 2 {
		t.Fatalf("unexpected details: %+v", d)
	}

	expectError(t, h.do(t, http.MethodGet, "/challenges/999", "", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestCreateChallenge_IdempotentReplay(t *testing.T) {
	h := newHarness(t)
	body := services.CreateChallengeInput{
		Title:       "Cold Showers",
		Description: "One cold shower a day for a week.",
		Category:    "Other",
		Difficulty:  "easy",
		Points:      120,
	}

	w := h.do(t, http.MethodPost, "/challenges", "user3", body, middleware.HeaderIdempotencyKey, "create-1")
	expectStatus(t, w, http.StatusCreated)
	first := decode[domain.Challenge](t, w)
	if first.CreatorID != "user3" || first.Difficulty != domain.DifficultyEasy {
		t.Fatalf("unexpected challenge: %+v", first)
	}

	w = h.do(t, http.MethodPost, "/challenges", "user3", body, middleware.HeaderIdempotencyKey, "create-1")
	expectStatus(t, w, http.StatusOK)
	if again := decode[domain.Challenge](t, w); again.ID != first.ID {
		t.Fatalf("replay returned %s, want %s", again.ID, first.ID)
	}

	u, _ := h.store.User("user3")
	if len(u.Created) != 2 {
		t.Fatalf("user3 created %d challenges, want 2", len(u.Created))
	}

	// A different user with the same key creates their own.
	w = h.do(t, http.MethodPost, "/challenges", "user4", body, middleware.HeaderIdempotencyKey, "create-1")
	expectStatus(t, w, http.StatusCreated)

	bad := body
	bad.Difficulty = "impossible"
	expectError(t, h.do(t, http.MethodPost, "/challenges", "user3", bad), http.StatusBadRequest, ErrCodeInvalidInput)
	expectError(t, h.do(t, http.MethodPost, "/challenges", "", body), http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestStatusWorkflow_OverHTTP(t *testing.T) {
	h := newHarness(t)

	status := func(user string) services.ChallengeStatus {
		t.Helper()
		w := h.do(t, http.MethodGet, "/challenges/1/status", user, nil)
		expectStatus(t, w, http.StatusOK)
		return decode[services.StatusView](t, w).Status
	}
	if got := status("user2"); got != services.StatusNone {
		t.Fatalf("initial status %q", got)
	}

	w := h.do(t, http.MethodPost, "/challenges/1/status", "user2", UpdateStatusRequest{Action: "accept"})
	expectStatus(t, w, http.StatusOK)
	if got := decode[services.StatusView](t, w).Status; got != services.StatusActive {
		t.Fatalf("after accept %q", got)
	}

	expectError(t, h.do(t, http.MethodPost, "/challenges/1/status", "user2", UpdateStatusRequest{Action: "submit_proof"}),
		http.StatusBadRequest, ErrCodeInvalidInput)

	proof := &services.ProofData{MediaURL: "https://cdn.example/p.jpg", MediaType: domain.MediaImage, Description: "done"}
	w = h.do(t, http.MethodPost, "/challenges/1/status", "user2", UpdateStatusRequest{Action: "submit_proof", ProofData: proof})
	expectStatus(t, w, http.StatusOK)
	view := decode[services.StatusView](t, w)
	if view.Status != services.StatusPending || view.Proof == nil || view.Proof.MediaURL != proof.MediaURL {
		t.Fatalf("after submit %+v", view)
	}

	w = h.do(t, http.MethodPost, "/challenges/1/status", "user1", UpdateStatusRequest{Action: "approve", SubmitterID: "user2"})
	expectStatus(t, w, http.StatusOK)
	if got := status("user2"); got != services.StatusCompleted {
		t.Fatalf("after approve %q", got)
	}

	w = h.do(t, http.MethodGet, "/users/user2/stats", "", nil)
	expectStatus(t, w, http.StatusOK)
	if st := decode[domain.UserStats](t, w); st.Points != 500 || st.Completed != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}

	expectError(t, h.do(t, http.MethodPost, "/challenges/1/status", "user1", UpdateStatusRequest{Action: "approve", SubmitterID: "user2"}),
		http.StatusConflict, ErrCodeInvalidState)
	expectError(t, h.do(t, http.MethodPost, "/challenges/1/status", "user2", UpdateStatusRequest{Action: "dance"}),
		http.StatusBadRequest, ErrCodeInvalidInput)
	expectError(t, h.do(t, http.MethodPost, "/challenges/1/status", "user2", map[string]string{}),
		http.StatusBadRequest, ErrCodeBadRequest)
}

func TestFavoritesOverHTTP(t *testing.T) {
	h := newHarness(t)

	fav := func(method, path string) bool {
		t.Helper()
		w := h.do(t, method, path, "user5", nil)
		expectStatus(t, w, http.StatusOK)
		return decode[FavoriteResponse](t, w).IsFavorite
	}

	if !fav(http.MethodPost, "/challenges/3/favorite") {
		t.Fatal("toggle should favorite")
	}
	if !fav(http.MethodGet, "/challenges/3/favorite-status") {
		t.Fatal("status should report favorite")
	}
	if !fav(http.MethodPatch, "/challenges/4/save") {
		t.Fatal("save should favorite")
	}

	w := h.do(t, http.MethodGet, "/challenges/favorites", "user5", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[ListChallengesResponse](t, w); got.Total != 2 {
		t.Fatalf("favorites=%d want 2", got.Total)
	}

	if fav(http.MethodPatch, "/challenges/4/unsave") {
		t.Fatal("unsave should clear")
	}
	if fav(http.MethodPost, "/challenges/3/favorite") {
		t.Fatal("second toggle should clear")
	}

	expectError(t, h.do(t, http.MethodGet, "/challenges/favorites", "", nil), http.StatusUnauthorized, ErrCodeUnauthorized)
	expectError(t, h.do(t, http.MethodPost, "/challenges/404/favorite", "user5", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestLikesCommentsAndRatings(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/challenges/2/like", "user3", nil)
	expectStatus(t, w, http.StatusOK)
	if res := decode[services.LikeResult](t, w); !res.Liked || res.LikesCount != 190 {
		t.Fatalf("unexpected like %+v", res)
	}
	w = h.do(t, http.MethodPost, "/challenges/2/like", "user3", nil)
	if res := decode[services.LikeResult](t, w); res.Liked || res.LikesCount != 189 {
		t.Fatalf("unexpected unlike %+v", res)
	}

	w = h.do(t, http.MethodPost, "/challenges/2/comments", "user3", AddCommentRequest{Content: "On it"})
	expectStatus(t, w, http.StatusCreated)
	cm := decode[domain.Comment](t, w)
	if cm.UserID != "user3" || cm.ChallengeID != "2" {
		t.Fatalf("unexpected comment %+v", cm)
	}
	expectError(t, h.do(t, http.MethodDelete, "/comments/"+cm.ID, "user4", nil), http.StatusUnauthorized, ErrCodeUnauthorized)
	expectStatus(t, h.do(t, http.MethodDelete, "/comments/"+cm.ID, "user3", nil), http.StatusNoContent)

	proof := &services.ProofData{MediaURL: "https://cdn.example/v.mp4", MediaType: domain.MediaVideo}
	expectStatus(t, h.do(t, http.MethodPost, "/challenges/2/status", "user3", UpdateStatusRequest{Action: "submit_proof", ProofData: proof}), http.StatusOK)
	view := decode[services.StatusView](t, h.do(t, http.MethodGet, "/challenges/2/status", "user3", nil))
	if view.Proof == nil {
		t.Fatal("expected proof")
	}
	path := "/completions/" + view.Proof.ID + "/rating"

	expectError(t, h.do(t, http.MethodPost, path, "user3", RateCompletionRequest{Rating: 5}), http.StatusConflict, ErrCodeInvalidState)
	expectError(t, h.do(t, http.MethodPost, path, "user4", RateCompletionRequest{Rating: 9}), http.StatusBadRequest, ErrCodeInvalidInput)

	expectStatus(t, h.do(t, http.MethodPost, path, "user4", RateCompletionRequest{Rating: 5}), http.StatusOK)
	w = h.do(t, http.MethodPost, path, "user5", RateCompletionRequest{Rating: 2})
	expectStatus(t, w, http.StatusOK)
	if got := decode[domain.Completion](t, w); got.AverageRating != 3.5 {
		t.Fatalf("average=%v want 3.5", got.AverageRating)
	}
}
