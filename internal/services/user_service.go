package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-challenge-backend/internal/derived"
	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/store"
	"github.com/tbourn/go-challenge-backend/internal/utils"
)

// UserSummary is the public card of a user.
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func summary(tx *store.Tx, id string) UserSummary {
	u, ok := tx.User(id)
	if !ok {
		return UserSummary{ID: id}
	}
	return UserSummary{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

// UserService serves user profiles and statistics. It never mutates.
type UserService struct {
	facade
}

// NewUserService builds the facade.
func NewUserService(d Deps) *UserService {
	return &UserService{facade: newFacade("UserService", d)}
}

// Get returns userID's profile.
func (s *UserService) Get(ctx context.Context, userID string) (out domain.User, err error) {
	ctx, span := s.start(ctx, "Get", attribute.String("user.id", userID))
	defer func() { s.finish(span, "Get", err) }()

	err = s.read(ctx, false, func(tx *store.Tx) error {
		u, err := lookupUser(tx, userID)
		if err != nil {
			return err
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

// List returns one page of users whose username or full name contains search
// (case-insensitive), in registration order.
func (s *UserService) List(ctx context.Context, search string, page, pageSize int) (out []domain.User, total int, err error) {
	ctx, span := s.start(ctx, "List",
		attribute.String("search", search),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)
	defer func() { s.finish(span, "List", err) }()

	q := strings.ToLower(strings.TrimSpace(search))
	var all []domain.User
	err = s.read(ctx, true, func(tx *store.Tx) error {
		for _, u := range tx.Users() {
			if q != "" && !strings.Contains(strings.ToLower(u.Username), q) && !strings.Contains(strings.ToLower(u.FullName), q) {
				continue
			}
			all = append(all, u.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	out, total = utils.Paginate(all, page, pageSize)
	return out, total, nil
}

// Stats returns userID's profile counters. Points are recomputed from the
// completed set rather than read from the record.
func (s *UserService) Stats(ctx context.Context, userID string) (out domain.UserStats, err error) {
	ctx, span := s.start(ctx, "Stats", attribute.String("user.id", userID))
	defer func() { s.finish(span, "Stats", err) }()

	err = s.read(ctx, true, func(tx *store.Tx) error {
		u, err := lookupUser(tx, userID)
		if err != nil {
			return err
		}
		out = domain.UserStats{
			Created:   len(u.Created),
			Completed: len(u.Completed),
			Active:    len(u.Active),
			Saved:     len(u.Favorites),
			Points:    derived.ComputePoints(u.Completed, tx.ChallengePoints),
			Friends:   len(u.Friends),
			Submissions: len(tx.Completions(func(c *domain.Completion) bool {
				return c.UserID == userID
			})),
		}
		return nil
	})
	return out, err
}
