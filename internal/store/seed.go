package store

import (
	"time"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// CurrentUserID is the seeded default session user.
const CurrentUserID = "current-user"

type seedUser struct {
	id, username, fullName string
}

type seedChallenge struct {
	id, title, description, category string
	difficulty                       domain.Difficulty
	points, timeLimit                int
	creatorID, image                 string
	likes, completions               int
	createdAt                        string
}

type seedComment struct {
	id, challengeID, userID, content, createdAt string
}

var (
	seedUsers = []seedUser{
		{"user1", "TechMaster", "John Smith"},
		{"user2", "EcoWarrior", "Emma Green"},
		{"user3", "FitnessPro", "Mike Johnson"},
		{"user4", "ArtisticSoul", "Sofia Rodriguez"},
		{"user5", "MindfulGuru", "David Chen"},
		{CurrentUserID, "ChallengeSeeker", "Alex Thompson"},
	}

	seedChallenges = []seedChallenge{
		{"1", "30 Days of Coding", "Code at least 1 hour every day for 30 days straight. Share your progress daily!",
			"Educational", domain.DifficultyMedium, 500, 720, "user1", "/images/challenges/coding.jpg", 245, 58, "2024-02-01T10:00:00Z"},
		{"2", "Zero Waste Week", "Live a week producing as little waste as possible. Document your reusable swaps.",
			"Environmental", domain.DifficultyEasy, 300, 168, "user2", "/images/challenges/zero-waste.jpg", 189, 42, "2024-02-03T09:00:00Z"},
		{"3", "5K Training Challenge", "Train for and complete a 5K run within two weeks.",
			"Sports", domain.DifficultyHard, 400, 336, "user3", "/images/challenges/running.jpg", 312, 76, "2024-02-05T07:30:00Z"},
		{"4", "Digital Art Portfolio", "Create one digital artwork a day for a week and share the portfolio.",
			"Creative", domain.DifficultyMedium, 350, 168, "user4", "/images/challenges/art.jpg", 156, 34, "2024-02-06T12:00:00Z"},
		{"5", "21 Days of Meditation", "Meditate for at least 10 minutes every day for 21 days.",
			"Other", domain.DifficultyEasy, 450, 504, "user5", "/images/challenges/meditation.jpg", 278, 91, "2024-02-07T06:00:00Z"},
		{"6", "Community Clean-up", "Organize or join a clean-up in your neighbourhood and show the before and after.",
			"Social", domain.DifficultyMedium, 600, 72, "user2", "/images/challenges/cleanup.jpg", 201, 27, "2024-02-08T15:00:00Z"},
		{"7", "Learn a New Language", "Study a new language every day for 30 days and hold a short conversation at the end.",
			"Educational", domain.DifficultyHard, 550, 720, "user1", "/images/challenges/language.jpg", 167, 19, "2024-02-09T11:00:00Z"},
	}

	seedComments = []seedComment{
		{"1", "1", "user2", "This challenge really helped me build a consistent coding habit!", "2024-02-10T09:00:00Z"},
		{"2", "1", "user3", "Day 15 and still going strong! Great challenge!", "2024-02-15T14:30:00Z"},
		{"3", "4", "user1", "Love seeing everyone's artwork! Such creativity!", "2024-02-16T10:15:00Z"},
		{"4", "5", "user4", "This meditation challenge has really improved my focus", "2024-02-14T16:45:00Z"},
	}
)

// Seed loads the demo data set. Point totals start at zero because nobody has
// a completed challenge yet; they are only ever derived from completions.
func (s *Store) Seed() {
	_ = s.Update(func(tx *Tx) error {
		now := tx.Now()
		for _, su := range seedUsers {
			tx.PutUser(domain.User{
				ID:        su.id,
				Username:  su.username,
				FullName:  su.fullName,
				AvatarURL: "/images/avatars/" + su.id + ".jpg",
				LastSeen:  now,
			})
		}
		for _, sc := range seedChallenges {
			limit := sc.timeLimit
			tx.InsertChallenge(domain.Challenge{
				ID:               sc.id,
				Title:            sc.title,
				Description:      sc.description,
				Category:         sc.category,
				Difficulty:       sc.difficulty,
				Points:           sc.points,
				TimeLimit:        &limit,
				CreatorID:        sc.creatorID,
				ImageURL:         sc.image,
				LikesCount:       sc.likes,
				CompletionsCount: sc.completions,
				CreatedAt:        mustTime(sc.createdAt),
			})
			if u, ok := tx.User(sc.creatorID); ok {
				u.Created.Add(sc.id)
			}
		}
		for _, c := range seedComments {
			tx.InsertComment(domain.Comment{
				ID:          c.id,
				ChallengeID: c.challengeID,
				UserID:      c.userID,
				Content:     c.content,
				CreatedAt:   mustTime(c.createdAt),
			})
		}
		return nil
	})
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
