// Challenge HTTP handlers.
//
// This file exposes the challenge catalogue, the per-user status workflow
// (accept, submit_proof, approve, reject), favorites, likes, comments and
// completion ratings.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/http/middleware"
	"github.com/tbourn/go-challenge-backend/internal/services"
)

//
// DTOs
//

// ListChallengesResponse wraps the filtered challenge list.
type ListChallengesResponse struct {
	Challenges []domain.Challenge `json:"challenges"`
	Total      int                `json:"total"`
}

// UpdateStatusRequest is the payload of POST /challenges/{id}/status.
type UpdateStatusRequest struct {
	// Action is one of accept, submit_proof, approve, reject.
	Action string `json:"action" binding:"required" example:"submit_proof"`
	// ProofData is required for submit_proof.
	ProofData *services.ProofData `json:"proofData,omitempty"`
	// SubmitterID selects whose submission approve/reject decides. Defaults to the actor.
	SubmitterID string `json:"submitterId,omitempty" example:"user2"`
}

// FavoriteResponse reports the favorite flag after a change or lookup.
type FavoriteResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

// AddCommentRequest is the payload of POST /challenges/{id}/comments.
type AddCommentRequest struct {
	Content string `json:"content" binding:"required" example:"Nice one!"`
}

// RateCompletionRequest is the payload of POST /completions/{id}/rating.
type RateCompletionRequest struct {
	Rating int `json:"rating" binding:"required" example:"4"`
}

//
// Handlers
//

// ListChallenges godoc
// @ID          listChallenges
// @Summary     List challenges
// @Description Filters by category and difficulty, optionally by the acting user's connection, ranks by a free-text query and sorts.
// @Tags        Challenges
// @Produce     json
//
// @Param       X-User-ID           header  string  false  "Acting user"  example(user1)
// @Param       category            query   string  false  "Category"
// @Param       difficulty          query   string  false  "Easy, Medium or Hard"
// @Param       sortType            query   string  false  "likes, submissions or points"
// @Param       userConnectionType  query   string  false  "author, active, complete, saved, pending_verification or awaiting_response"
// @Param       q                   query   string  false  "Free-text query"
//
// @Success     200  {object}  handlers.ListChallengesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "No session user"
// @Router      /challenges [get]
func (h *Handlers) ListChallenges(c *gin.Context) {
	q := services.ListQuery{
		Category:   strings.TrimSpace(c.Query("category")),
		Difficulty: domain.Difficulty(strings.TrimSpace(c.Query("difficulty"))),
		SortType:   services.SortType(c.Query("sortType")),
		Connection: services.Connection(c.Query("userConnectionType")),
		Query:      c.Query("q"),
	}
	items, err := h.challenges.List(c.Request.Context(), q)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListChallengesResponse{Challenges: items, Total: len(items)})
}

// ListFavorites godoc
// @ID          listFavoriteChallenges
// @Summary     List the acting user's favorite challenges
// @Tags        Challenges
// @Produce     json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Success     200  {object}  handlers.ListChallengesResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No session user"
// @Router      /challenges/favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	items, err := h.challenges.Favorites(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListChallengesResponse{Challenges: items, Total: len(items)})
}

// GetChallenge godoc
// @ID          getChallenge
// @Summary     Get a challenge with its comments and completions
// @Tags        Challenges
// @Produce     json
// @Param       id  path  string  true  "Challenge ID"
// @Success     200  {object}  services.ChallengeDetails
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /challenges/{id} [get]
func (h *Handlers) GetChallenge(c *gin.Context) {
	d, err := h.challenges.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// CreateChallenge godoc
// @ID          createChallenge
// @Summary     Create a challenge
// @Description Creates a challenge authored by the acting user. A retry carrying the same Idempotency-Key returns the original challenge with 200.
// @Tags        Challenges
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false  "Acting user"      example(user1)
// @Param       Idempotency-Key  header  string  false  "Idempotency key"  example(3f1c2a)
// @Param       body             body    services.CreateChallengeInput  true  "Challenge"
//
// @Success     201  {object}  domain.Challenge
// @Success     200  {object}  domain.Challenge  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "No session user"
// @Router      /challenges [post]
func (h *Handlers) CreateChallenge(c *gin.Context) {
	ctx := c.Request.Context()
	if rec, replay := middleware.Replay(c); replay {
		d, err := h.challenges.Get(ctx, rec.ResourceID)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, d.Challenge)
		return
	}

	var in services.CreateChallengeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	ch, err := h.challenges.Create(ctx, in, actor(c))
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.SetIdempotentResource(c, ch.ID)
	ok(c, http.StatusCreated, ch)
}

// GetStatus godoc
// @ID          getChallengeStatus
// @Summary     The acting user's status for a challenge
// @Tags        Challenges
// @Produce     json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       id         path    string  true   "Challenge ID"
// @Success     200  {object}  services.StatusView
// @Failure     401  {object}  handlers.ErrorResponse  "No session user"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /challenges/{id}/status [get]
func (h *Handlers) GetStatus(c *gin.Context) {
	v, err := h.challenges.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// UpdateStatus godoc
// @ID          updateChallengeStatus
// @Summary     Move a challenge through accept, submit_proof, approve or reject
// @Description Returns the acting user's status after the action.
// @Tags        Challenges
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       id         path    string  true   "Challenge ID"
// @Param       body       body    handlers.UpdateStatusRequest  true  "Action"
// @Success     200  {object}  services.StatusView
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown action or bad proof"
// @Failure     401  {object}  handlers.ErrorResponse  "No session user or not the creator"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "No pending submission"
// @Router      /challenges/{id}/status [post]
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	action, err := services.ParseStatusAction(req.Action, req.ProofData, strings.TrimSpace(req.SubmitterID))
	if err != nil {
		failErr(c, err)
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.challenges.UpdateStatus(ctx, id, action); err != nil {
		failErr(c, err)
		return
	}
	v, err := h.challenges.Status(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// ToggleFavorite godoc
// @ID          toggleFavorite
// @Summary     Flip the favorite flag of a challenge
// @Tags        Challenges
// @Produce     json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       id         path    string  true   "Challenge ID"
// @Success     200  {object}  handlers.FavoriteResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No session user"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /challenges/{id}/favorite [post]
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	fav, err := h.challenges.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, FavoriteResponse{IsFavorite: fav})
}

// SaveChallenge godoc
// @ID          saveChallenge
// @Summary     Add a challenge to favorites
// @Tags        Challenges
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       id         path    string  true   "Challenge ID"
// @Success     200  {object}  handlers.FavoriteResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /challenges/{id}/save [patch]
func (h *Handlers) SaveChallenge(c *gin.Context) { h.setFavorite(c, true) }

// UnsaveChallenge godoc
// @ID          unsaveChallenge
// @Summary     Remove a challenge from favorites
// @Tags        Challenges
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       id         path    string  true   "Challenge ID"
// @Success     200  {object}  handlers.FavoriteResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /challenges/{id}/unsave [patch]
func (h *Handlers) UnsaveChallenge(c *gin.Context) { h.setFavorite(c, false) }

func (h *Handlers) setFavorite(c *gin.Context, on bool) {
	if err := h.challenges.SetFavorite(c.Request.Context(), c.Param("id"), on); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, FavoriteResponse{IsFavorite: on})
}

// FavoriteStatus godoc
// @ID          favoriteStatus
// @Summary     Whether the acting user favorited a challenge
// @Tags        Challenges
// @Produce     json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       id         path    string  true   "Challenge ID"
// @Success     200  {object}  handlers.FavoriteResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No session user"
// @Router      /challenges/{id}/favorite-status [get]
func (h *Handlers) FavoriteStatus(c *gin.Context) {
	fav, err := h.challenges.IsFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, FavoriteResponse{IsFavorite: fav})
}

// ToggleLike godoc
// @ID          toggleLike
// @Summary     Like or unlike a challenge
// @Tags        Challenges
// @Produce     json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       id         path    string  true   "Challenge ID"
// @Success     200  {object}  services.LikeResult
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /challenges/{id}/like [post]
func (h *Handlers) ToggleLike(c *gin.Context) {
	res, err := h.challenges.ToggleLike(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// AddComment godoc
// @ID          addComment
// @Summary     Comment on a challenge
// @Tags        Challenges
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       id         path    string  true   "Challenge ID"
// @Param       body       body    handlers.AddCommentRequest  true  "Comment"
// @Success     201  {object}  domain.Comment
// @Failure     400  {object}  handlers.ErrorResponse  "Empty content"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /challenges/{id}/comments [post]
func (h *Handlers) AddComment(c *gin.Context) {
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	cm, err := h.challenges.AddComment(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, cm)
}

// DeleteComment godoc
// @ID          deleteComment
// @Summary     Delete one of the acting user's comments
// @Tags        Challenges
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       commentId  path    string  true   "Comment ID"
// @Success     204
// @Failure     401  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /comments/{commentId} [delete]
func (h *Handlers) DeleteComment(c *gin.Context) {
	if err := h.challenges.DeleteComment(c.Request.Context(), c.Param("commentId")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// RateCompletion godoc
// @ID          rateCompletion
// @Summary     Rate someone else's completion from 1 to 5
// @Tags        Challenges
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false  "Acting user"  example(user1)
// @Param       id         path    string  true   "Completion ID"
// @Param       body       body    handlers.RateCompletionRequest  true  "Rating"
// @Success     200  {object}  domain.Completion
// @Failure     400  {object}  handlers.ErrorResponse  "Rating out of range"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Own submission"
// @Router      /completions/{id}/rating [post]
func (h *Handlers) RateCompletion(c *gin.Context) {
	var req RateCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	out, err := h.challenges.RateCompletion(c.Request.Context(), c.Param("id"), req.Rating)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}
