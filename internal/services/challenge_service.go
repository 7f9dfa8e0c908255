// Package services – ChallengeService
//
// ChallengeService owns the challenge lifecycle: creation, the per-user
// status machine (accept → submit proof → approve/reject), favorites, likes,
// comments and community ratings of proofs. Every mutation waits for the
// simulated latency, applies atomically inside one store update and then
// publishes its events on the bus.
//
// Observability: all public methods are OpenTelemetry-instrumented and counted
// in facade_operations_total.
package services

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-challenge-backend/internal/derived"
	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/search"
	"github.com/tbourn/go-challenge-backend/internal/store"
)

// FavoritesCache caches each user's favorite ids outside the store.
type FavoritesCache interface {
	Load(ctx context.Context, userID string) (ids []string, gen uint64, ok bool)
	Store(ctx context.Context, userID string, ids []string, gen uint64) error
}

// ChallengeIndex is the text index used by List queries.
type ChallengeIndex interface {
	Upsert(id string, text ...string)
	TopK(query string, k int) []search.Result
}

// SortType orders challenge listings.
type SortType string

const (
	SortNewest      SortType = ""
	SortLikes       SortType = "likes"
	SortSubmissions SortType = "submissions"
	SortPoints      SortType = "points"
)

// Connection filters challenges by the session user's relation to them.
type Connection string

const (
	ConnAny                 Connection = ""
	ConnAuthor              Connection = "author"
	ConnActive              Connection = "active"
	ConnComplete            Connection = "complete"
	ConnSaved               Connection = "saved"
	ConnPendingVerification Connection = "pending_verification"
	ConnAwaitingResponse    Connection = "awaiting_response"
)

// ListQuery filters and orders List.
type ListQuery struct {
	Category   string
	Difficulty domain.Difficulty
	SortType   SortType   `validate:"omitempty,oneof=likes submissions points"`
	Connection Connection `validate:"omitempty,oneof=author active complete saved pending_verification awaiting_response"`
	Query      string     `validate:"max=200"`
}

// CreateChallengeInput is the payload of Create.
type CreateChallengeInput struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"required,max=4000"`
	Category    string `json:"category" validate:"required,max=60"`
	Difficulty  string `json:"difficulty" validate:"required"`
	Points      int    `json:"points" validate:"gt=0,lte=100000"`
	TimeLimit   *int   `json:"timeLimit,omitempty" validate:"omitempty,gt=0"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"max=2048"`
}

// ChallengeDetails is a challenge with its comments and proofs.
type ChallengeDetails struct {
	Challenge   domain.Challenge    `json:"challenge"`
	Comments    []domain.Comment    `json:"comments"`
	Completions []domain.Completion `json:"completions"`
}

// LikeResult is the outcome of ToggleLike.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// ChallengeService is the challenges facade.
type ChallengeService struct {
	facade

	// EnforceCreatorDecisions restricts Approve and Reject to the challenge
	// creator.
	EnforceCreatorDecisions bool
	// Cache, when set, serves Favorites reads.
	Cache FavoritesCache
	// Index, when set, backs ListQuery.Query and is fed by Create.
	Index ChallengeIndex
}

// NewChallengeService builds the facade.
func NewChallengeService(d Deps) *ChallengeService {
	return &ChallengeService{facade: newFacade("ChallengeService", d)}
}

// IndexAll (re)loads every challenge into Index.
func (s *ChallengeService) IndexAll() {
	if s.Index == nil {
		return
	}
	s.store.View(func(tx *store.Tx) {
		for _, c := range tx.Challenges() {
			s.Index.Upsert(c.ID, c.Title, c.Description, c.Category)
		}
	})
}

var titleCaser = cases.Title(language.English)

func normalizeDifficulty(d string) (domain.Difficulty, error) {
	out := domain.Difficulty(titleCaser.String(strings.TrimSpace(d)))
	if !out.Valid() {
		return "", domain.Errorf(domain.KindInvalid, "difficulty must be one of Easy, Medium, Hard (got %q)", d)
	}
	return out, nil
}

// Create inserts a new challenge authored by creatorID (the session user when
// empty) and appends it to the creator's created set.
func (s *ChallengeService) Create(ctx context.Context, in CreateChallengeInput, creatorID string) (out domain.Challenge, err error) {
	ctx, span := s.start(ctx, "Create", attribute.String("user.id", creatorID))
	defer func() { s.finish(span, "Create", err) }()

	if creatorID == "" {
		if creatorID, err = s.actor(ctx); err != nil {
			return out, err
		}
	}
	if err = s.check(in); err != nil {
		return out, err
	}
	diff, err := normalizeDifficulty(in.Difficulty)
	if err != nil {
		return out, err
	}
	title := cleanText(in.Title)
	if title == "" {
		return out, ErrEmptyContent
	}

	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		creator, err := lookupUser(tx, creatorID)
		if err != nil {
			return nil, err
		}
		c := domain.Challenge{
			ID:          tx.NewID(),
			Title:       title,
			Description: cleanRich(in.Description),
			Category:    cleanText(in.Category),
			Difficulty:  diff,
			Points:      in.Points,
			CreatorID:   creator.ID,
			ImageURL:    strings.TrimSpace(in.ImageURL),
			CreatedAt:   tx.Now(),
		}
		if in.TimeLimit != nil {
			v := *in.TimeLimit
			c.TimeLimit = &v
		}
		p := tx.InsertChallenge(c)
		creator.Created.Add(p.ID)
		out = p.Clone()
		return []domain.Event{{Kind: domain.EventChallengeCreated, ChallengeID: p.ID, UserID: creator.ID}}, nil
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	if s.Index != nil {
		s.Index.Upsert(out.ID, out.Title, out.Description, out.Category)
	}
	s.log.Info().Str("challenge_id", out.ID).Str("user_id", creatorID).Msg("challenge created")
	return out, nil
}

// Status returns the session user's status for challengeID.
func (s *ChallengeService) Status(ctx context.Context, challengeID string) (out StatusView, err error) {
	ctx, span := s.start(ctx, "Status", attribute.String("challenge.id", challengeID))
	defer func() { s.finish(span, "Status", err) }()

	uid, err := s.actor(ctx)
	if err != nil {
		return out, err
	}
	err = s.read(ctx, true, func(tx *store.Tx) error {
		u, err := actingUser(tx, uid)
		if err != nil {
			return err
		}
		if _, err := lookupChallenge(tx, challengeID); err != nil {
			return err
		}
		out.Status = statusOf(u, challengeID)
		if c, ok := tx.LatestCompletion(uid, challengeID); ok {
			cp := c.Clone()
			out.Proof = &cp
		}
		return nil
	})
	return out, err
}

// UpdateStatus applies a status action for challengeID.
func (s *ChallengeService) UpdateStatus(ctx context.Context, challengeID string, action StatusAction) (err error) {
	ctx, span := s.start(ctx, "UpdateStatus",
		attribute.String("challenge.id", challengeID),
		attribute.String("action", ActionName(action)),
	)
	defer func() { s.finish(span, "UpdateStatus", err) }()

	uid, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if sp, ok := action.(SubmitProof); ok {
		if err := s.check(sp.Proof); err != nil {
			return err
		}
	}

	return s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		actor, err := actingUser(tx, uid)
		if err != nil {
			return nil, err
		}
		ch, err := lookupChallenge(tx, challengeID)
		if err != nil {
			return nil, err
		}
		switch a := action.(type) {
		case Accept:
			return s.accept(actor, ch)
		case SubmitProof:
			return s.submitProof(tx, actor, ch, a.Proof)
		case Approve:
			return s.decide(tx, actor, ch, a.SubmitterID, true)
		case Reject:
			return s.decide(tx, actor, ch, a.SubmitterID, false)
		}
		return nil, ErrUnknownAction
	})
}

func (s *ChallengeService) accept(u *domain.User, ch *domain.Challenge) ([]domain.Event, error) {
	if statusOf(u, ch.ID) != StatusNone {
		return nil, nil
	}
	u.Active.Add(ch.ID)
	return []domain.Event{{Kind: domain.EventChallengeUpdated, ChallengeID: ch.ID, UserID: u.ID}}, nil
}

func (s *ChallengeService) submitProof(tx *store.Tx, u *domain.User, ch *domain.Challenge, p ProofData) ([]domain.Event, error) {
	if u.Active.Has(ch.ID) {
		u.Active.Remove(ch.ID)
		u.Pending.Add(ch.ID)
	}
	mt := p.MediaType
	if mt == "" {
		mt = domain.MediaImage
	}
	now := tx.Now()
	c, ok := tx.LatestCompletion(u.ID, ch.ID)
	if !ok || c.Status != domain.CompletionPending {
		c = tx.InsertCompletion(domain.Completion{
			ID:          tx.NewID(),
			UserID:      u.ID,
			ChallengeID: ch.ID,
			Ratings:     map[string]int{},
			Status:      domain.CompletionPending,
		})
	}
	c.MediaURL = strings.TrimSpace(p.MediaURL)
	c.MediaType = mt
	c.Description = cleanRich(p.Description)
	c.SubmittedAt = now
	return []domain.Event{{Kind: domain.EventChallengeUpdated, ChallengeID: ch.ID, UserID: u.ID, CompletionID: c.ID}}, nil
}

// decide approves or rejects the pending proof of submitterID.
func (s *ChallengeService) decide(tx *store.Tx, actor *domain.User, ch *domain.Challenge, submitterID string, approve bool) ([]domain.Event, error) {
	if s.EnforceCreatorDecisions && actor.ID != ch.CreatorID {
		return nil, ErrNotCreator
	}
	if submitterID == "" {
		submitterID = actor.ID
	}
	sub, err := lookupUser(tx, submitterID)
	if err != nil {
		return nil, err
	}
	c, ok := tx.LatestCompletion(sub.ID, ch.ID)
	if !ok || c.Status != domain.CompletionPending {
		return nil, ErrNoPendingSubmission
	}

	now := tx.Now()
	c.DecidedAt = &now
	sub.Pending.Remove(ch.ID)
	if approve {
		c.Status = domain.CompletionApproved
		sub.Active.Remove(ch.ID)
		sub.Completed.Add(ch.ID)
		sub.Points = derived.ComputePoints(sub.Completed, tx.ChallengePoints)
		ch.CompletionsCount++
	} else {
		c.Status = domain.CompletionRejected
		if !sub.Completed.Has(ch.ID) {
			sub.Active.Add(ch.ID)
		}
	}
	ev := domain.Event{Kind: domain.EventChallengeUpdated, ChallengeID: ch.ID, UserID: sub.ID, CompletionID: c.ID}
	if actor.ID != sub.ID {
		ev.OtherUserID = actor.ID
	}
	return []domain.Event{ev}, nil
}

// ToggleFavorite flips challengeID in the session user's favorites and
// reports the resulting membership.
func (s *ChallengeService) ToggleFavorite(ctx context.Context, challengeID string) (fav bool, err error) {
	ctx, span := s.start(ctx, "ToggleFavorite", attribute.String("challenge.id", challengeID))
	defer func() { s.finish(span, "ToggleFavorite", err) }()
	return s.setFavorite(ctx, challengeID, nil)
}

// SetFavorite saves (on) or unsaves challengeID. It is idempotent.
func (s *ChallengeService) SetFavorite(ctx context.Context, challengeID string, on bool) (err error) {
	ctx, span := s.start(ctx, "SetFavorite",
		attribute.String("challenge.id", challengeID),
		attribute.Bool("favorite", on),
	)
	defer func() { s.finish(span, "SetFavorite", err) }()
	_, err = s.setFavorite(ctx, challengeID, &on)
	return err
}

// setFavorite toggles when want is nil.
func (s *ChallengeService) setFavorite(ctx context.Context, challengeID string, want *bool) (fav bool, err error) {
	uid, err := s.actor(ctx)
	if err != nil {
		return false, err
	}
	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		u, err := actingUser(tx, uid)
		if err != nil {
			return nil, err
		}
		target := !u.Favorites.Has(challengeID)
		if want != nil {
			target = *want
		}
		var changed bool
		if target {
			if _, err := lookupChallenge(tx, challengeID); err != nil {
				return nil, err
			}
			changed = u.Favorites.Add(challengeID)
		} else {
			changed = u.Favorites.Remove(challengeID)
		}
		fav = target
		if !changed {
			return nil, nil
		}
		return []domain.Event{{Kind: domain.EventFavoriteToggled, ChallengeID: challengeID, UserID: uid}}, nil
	})
	return fav, err
}

// IsFavorite reports whether challengeID is in the session user's favorites.
func (s *ChallengeService) IsFavorite(ctx context.Context, challengeID string) (fav bool, err error) {
	ctx, span := s.start(ctx, "IsFavorite", attribute.String("challenge.id", challengeID))
	defer func() { s.finish(span, "IsFavorite", err) }()

	uid, err := s.actor(ctx)
	if err != nil {
		return false, err
	}
	err = s.read(ctx, false, func(tx *store.Tx) error {
		u, err := actingUser(tx, uid)
		if err != nil {
			return err
		}
		fav = u.Favorites.Has(challengeID)
		return nil
	})
	return fav, err
}

// Favorites returns the challenges in the session user's favorites, in the
// order they were saved. Ids are served from the cache when it holds them.
func (s *ChallengeService) Favorites(ctx context.Context) (out []domain.Challenge, err error) {
	ctx, span := s.start(ctx, "Favorites")
	defer func() { s.finish(span, "Favorites", err) }()

	uid, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	var (
		ids    []string
		gen    uint64
		cached bool
	)
	if s.Cache != nil {
		ids, gen, cached = s.Cache.Load(ctx, uid)
	}
	span.SetAttributes(attribute.Bool("cache.hit", cached))

	err = s.read(ctx, true, func(tx *store.Tx) error {
		u, err := actingUser(tx, uid)
		if err != nil {
			return err
		}
		if !cached {
			ids = u.Favorites.Clone()
		}
		out = make([]domain.Challenge, 0, len(ids))
		for _, id := range ids {
			if c, ok := tx.Challenge(id); ok {
				out = append(out, c.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !cached && s.Cache != nil {
		if err := s.Cache.Store(ctx, uid, ids, gen); err != nil {
			s.log.Warn().Err(err).Str("user_id", uid).Msg("favorites cache fill failed")
		}
	}
	return out, nil
}

// List returns challenges matching q. Connection filters need a session user.
func (s *ChallengeService) List(ctx context.Context, q ListQuery) (out []domain.Challenge, err error) {
	ctx, span := s.start(ctx, "List",
		attribute.String("category", q.Category),
		attribute.String("sort", string(q.SortType)),
		attribute.String("connection", string(q.Connection)),
	)
	defer func() { s.finish(span, "List", err) }()

	if err = s.check(q); err != nil {
		return nil, err
	}
	var uid string
	if q.Connection != ConnAny {
		if uid, err = s.actor(ctx); err != nil {
			return nil, err
		}
	}

	var rank map[string]int
	if strings.TrimSpace(q.Query) != "" && s.Index != nil {
		res := s.Index.TopK(q.Query, 0)
		rank = make(map[string]int, len(res))
		for i, r := range res {
			rank[r.ID] = i
		}
	}

	err = s.read(ctx, true, func(tx *store.Tx) error {
		var u *domain.User
		if uid != "" {
			var err error
			if u, err = actingUser(tx, uid); err != nil {
				return err
			}
		}
		all := tx.Challenges()
		for _, c := range all {
			if q.Category != "" && !strings.EqualFold(q.Category, "all") && !strings.EqualFold(q.Category, c.Category) {
				continue
			}
			if q.Difficulty != "" && !strings.EqualFold(string(q.Difficulty), string(c.Difficulty)) {
				continue
			}
			if rank != nil {
				if _, ok := rank[c.ID]; !ok {
					continue
				}
			} else if q.Query != "" && !containsFold(c, q.Query) {
				continue
			}
			if u != nil && !connected(tx, u, c, q.Connection) {
				continue
			}
			out = append(out, c.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortChallenges(out, q.SortType, rank)
	return out, nil
}

func containsFold(c *domain.Challenge, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	return strings.Contains(strings.ToLower(c.Title), q) || strings.Contains(strings.ToLower(c.Description), q)
}

func connected(tx *store.Tx, u *domain.User, c *domain.Challenge, conn Connection) bool {
	switch conn {
	case ConnAuthor:
		return c.CreatorID == u.ID
	case ConnActive:
		return u.Active.Has(c.ID)
	case ConnComplete:
		return u.Completed.Has(c.ID)
	case ConnSaved:
		return u.Favorites.Has(c.ID)
	case ConnPendingVerification:
		return u.Pending.Has(c.ID)
	case ConnAwaitingResponse:
		if c.CreatorID != u.ID {
			return false
		}
		return len(tx.Completions(func(x *domain.Completion) bool {
			return x.ChallengeID == c.ID && x.Status == domain.CompletionPending
		})) > 0
	}
	return true
}

// sortChallenges orders by the sort key, falling back to search rank and then
// newest first.
func sortChallenges(cs []domain.Challenge, by SortType, rank map[string]int) {
	key := func(c domain.Challenge) int {
		switch by {
		case SortLikes:
			return c.LikesCount
		case SortSubmissions:
			return c.CompletionsCount
		case SortPoints:
			return c.Points
		}
		return 0
	}
	sort.SliceStable(cs, func(i, j int) bool {
		if ki, kj := key(cs[i]), key(cs[j]); ki != kj {
			return ki > kj
		}
		if rank != nil {
			if ri, rj := rank[cs[i].ID], rank[cs[j].ID]; ri != rj {
				return ri < rj
			}
		}
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}

// Get returns a challenge with its comments and proofs.
func (s *ChallengeService) Get(ctx context.Context, challengeID string) (out ChallengeDetails, err error) {
	ctx, span := s.start(ctx, "Get", attribute.String("challenge.id", challengeID))
	defer func() { s.finish(span, "Get", err) }()

	err = s.read(ctx, true, func(tx *store.Tx) error {
		c, err := lookupChallenge(tx, challengeID)
		if err != nil {
			return err
		}
		out.Challenge = c.Clone()
		out.Comments = []domain.Comment{}
		for _, cm := range tx.CommentsFor(challengeID) {
			out.Comments = append(out.Comments, *cm)
		}
		out.Completions = []domain.Completion{}
		for _, cp := range tx.Completions(func(x *domain.Completion) bool { return x.ChallengeID == challengeID }) {
			out.Completions = append(out.Completions, cp.Clone())
		}
		return nil
	})
	return out, err
}

// ToggleLike flips the session user's like on challengeID.
func (s *ChallengeService) ToggleLike(ctx context.Context, challengeID string) (out LikeResult, err error) {
	ctx, span := s.start(ctx, "ToggleLike", attribute.String("challenge.id", challengeID))
	defer func() { s.finish(span, "ToggleLike", err) }()

	uid, err := s.actor(ctx)
	if err != nil {
		return out, err
	}
	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		if _, err := actingUser(tx, uid); err != nil {
			return nil, err
		}
		c, err := lookupChallenge(tx, challengeID)
		if err != nil {
			return nil, err
		}
		if c.LikedBy.Remove(uid) {
			if c.LikesCount > 0 {
				c.LikesCount--
			}
		} else {
			c.LikedBy.Add(uid)
			c.LikesCount++
			out.Liked = true
		}
		out.LikesCount = c.LikesCount
		return []domain.Event{{Kind: domain.EventChallengeLiked, ChallengeID: c.ID, UserID: uid}}, nil
	})
	return out, err
}

// AddComment posts a comment by the session user.
func (s *ChallengeService) AddComment(ctx context.Context, challengeID, content string) (out domain.Comment, err error) {
	ctx, span := s.start(ctx, "AddComment", attribute.String("challenge.id", challengeID))
	defer func() { s.finish(span, "AddComment", err) }()

	uid, err := s.actor(ctx)
	if err != nil {
		return out, err
	}
	content = cleanRich(content)
	if content == "" {
		return out, ErrEmptyContent
	}
	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		if _, err := actingUser(tx, uid); err != nil {
			return nil, err
		}
		if _, err := lookupChallenge(tx, challengeID); err != nil {
			return nil, err
		}
		out = *tx.InsertComment(domain.Comment{
			ID:          tx.NewID(),
			ChallengeID: challengeID,
			UserID:      uid,
			Content:     content,
			CreatedAt:   tx.Now(),
		})
		return []domain.Event{{Kind: domain.EventCommentAdded, ChallengeID: challengeID, UserID: uid}}, nil
	})
	return out, err
}

// DeleteComment removes a comment written by the session user.
func (s *ChallengeService) DeleteComment(ctx context.Context, commentID string) (err error) {
	ctx, span := s.start(ctx, "DeleteComment", attribute.String("comment.id", commentID))
	defer func() { s.finish(span, "DeleteComment", err) }()

	uid, err := s.actor(ctx)
	if err != nil {
		return err
	}
	return s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		c, ok := tx.Comment(commentID)
		if !ok {
			return nil, ErrCommentNotFound
		}
		if c.UserID != uid {
			return nil, ErrNotCommentAuthor
		}
		chID := c.ChallengeID
		tx.RemoveComment(commentID)
		return []domain.Event{{Kind: domain.EventCommentDeleted, ChallengeID: chID, UserID: uid}}, nil
	})
}

// RateCompletion records the session user's 1..5 rating of a proof and
// refreshes its average.
func (s *ChallengeService) RateCompletion(ctx context.Context, completionID string, rating int) (out domain.Completion, err error) {
	ctx, span := s.start(ctx, "RateCompletion",
		attribute.String("completion.id", completionID),
		attribute.Int("rating", rating),
	)
	defer func() { s.finish(span, "RateCompletion", err) }()

	uid, err := s.actor(ctx)
	if err != nil {
		return out, err
	}
	if rating < 1 || rating > 5 {
		return out, ErrInvalidRating
	}
	err = s.mutate(ctx, func(tx *store.Tx) ([]domain.Event, error) {
		if _, err := actingUser(tx, uid); err != nil {
			return nil, err
		}
		c, ok := tx.Completion(completionID)
		if !ok {
			return nil, ErrCompletionNotFound
		}
		if c.UserID == uid {
			return nil, ErrSelfRating
		}
		if c.Ratings == nil {
			c.Ratings = map[string]int{}
		}
		c.Ratings[uid] = rating
		c.AverageRating = derived.ComputeAverageRating(c.Ratings)
		out = c.Clone()
		return []domain.Event{{
			Kind:         domain.EventCompletionRated,
			ChallengeID:  c.ChallengeID,
			CompletionID: c.ID,
			UserID:       c.UserID,
			OtherUserID:  uid,
		}}, nil
	})
	return out, err
}
