// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"davra/internal/crypto"
	"davra/internal/middleware"
	"davra/internal/models"
	"davra/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the credential every seeded account gets.
const DefaultPassword = "Password123!@"

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seeder populates the database with realistic demo data. Engagement rows are
// inserted directly and the denormalized counters settled through the same
// recount helpers the repositories use.
type Seeder struct {
	db     *gorm.DB
	cipher *crypto.Cipher
	rng    *rand.Rand
}

// NewSeeder creates a seeder bound to the given database and credential cipher.
func NewSeeder(db *gorm.DB, cipher *crypto.Cipher) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:     db,
		cipher: cipher,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed populates the database with test data.
func (s *Seeder) Seed(ctx context.Context, opts Options) error {
	middleware.Logger.Info("seeding database", "users", opts.NumUsers, "posts", opts.NumPosts)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}

	users, err := s.CreateUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}

	posts, err := s.CreatePosts(users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}

	if err := s.CreateEngagement(users, posts); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	if err := s.CreateFollowMesh(users); err != nil {
		return fmt.Errorf("failed to create follow mesh: %w", err)
	}

	middleware.Logger.Info("seeding complete", "users", len(users), "posts", len(posts))
	return nil
}

// ClearAll wipes every seeded table, dependents first.
func (s *Seeder) ClearAll() error {
	tables := []interface{}{
		&models.CommentLike{},
		&models.Comment{},
		&models.PostLike{},
		&models.Repost{},
		&models.Hashtag{},
		&models.Post{},
		&models.Follow{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Where("1 = 1").Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateUser constructs and persists one sample user. Optional override
// functions may modify the generated user before saving.
func (s *Seeder) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	ciphertext, iv, err := s.cipher.Encrypt(DefaultPassword)
	if err != nil {
		return nil, err
	}

	gender := models.GenderMale
	if s.rng.Intn(2) == 0 {
		gender = models.GenderFemale
	}

	user := &models.User{
		Username:   fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:      gofakeit.Email(),
		Password:   ciphertext,
		PasswordIV: iv,
		FullName:   gofakeit.Name(),
		Birthdate:  gofakeit.DateRange(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC)),
		Gender:     gender,
		Muslim:     s.rng.Intn(2) == 0,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUsers persists n sample users.
func (s *Seeder) CreateUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// CreatePost constructs and persists one sample post for the given author,
// sometimes working a hashtag into the text.
func (s *Seeder) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	text := gofakeit.Sentence(s.rng.Intn(10) + 3)
	if s.rng.Intn(3) == 0 {
		text = fmt.Sprintf("%s #%s", text, gofakeit.BuzzWord())
	}
	if len(text) > models.MaxPostTextLen {
		text = text[:models.MaxPostTextLen]
	}

	post := &models.Post{
		Text:     text,
		AuthorID: author.ID,
		// realistic created_at spread over the last 90 days
		CreatedAt: time.Now().Add(-time.Duration(s.rng.Intn(90*24)) * time.Hour),
	}

	for _, override := range overrides {
		override(post)
	}

	return post, s.db.Create(post).Error
}

// CreatePosts spreads n posts over the given users.
func (s *Seeder) CreatePosts(users []*models.User, n int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.rng.Intn(len(users))]
		post, err := s.CreatePost(author)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// CreateEngagement sprinkles likes, reposts, and comment threads over the
// posts, then settles every touched counter.
func (s *Seeder) CreateEngagement(users []*models.User, posts []*models.Post) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	for _, post := range posts {
		for _, user := range s.sampleUsers(users, s.rng.Intn(len(users)/2+1)) {
			if err := s.db.Create(&models.PostLike{PostID: post.ID, UserID: user.ID}).Error; err != nil {
				return err
			}
		}
		for _, user := range s.sampleUsers(users, s.rng.Intn(len(users)/4+1)) {
			if err := s.db.Create(&models.Repost{PostID: post.ID, UserID: user.ID}).Error; err != nil {
				return err
			}
		}

		numComments := s.rng.Intn(4)
		for i := 0; i < numComments; i++ {
			author := users[s.rng.Intn(len(users))]
			comment := &models.Comment{
				Content:  gofakeit.Sentence(s.rng.Intn(8) + 2),
				AuthorID: author.ID,
				PostID:   post.ID,
			}
			if err := s.db.Create(comment).Error; err != nil {
				return err
			}
			// occasional reply under the fresh comment
			if s.rng.Intn(3) == 0 {
				replier := users[s.rng.Intn(len(users))]
				reply := &models.Comment{
					Content:  gofakeit.Sentence(s.rng.Intn(6) + 2),
					AuthorID: replier.ID,
					PostID:   post.ID,
					ParentID: &comment.ID,
				}
				if err := s.db.Create(reply).Error; err != nil {
					return err
				}
			}
			if err := repository.SyncCommentCounts(s.db, comment.ID); err != nil {
				return err
			}
		}

		if err := repository.SyncPostCounts(s.db, post.ID); err != nil {
			return err
		}
	}
	return nil
}

// CreateFollowMesh wires a sparse random follow graph and settles the
// follower counters for everyone.
func (s *Seeder) CreateFollowMesh(users []*models.User) error {
	for _, follower := range users {
		for _, target := range s.sampleUsers(users, s.rng.Intn(len(users)/3+1)) {
			if target.ID == follower.ID {
				continue
			}
			var count int64
			if err := s.db.Model(&models.Follow{}).
				Where("follower_id = ? AND followee_id = ?", follower.ID, target.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := s.db.Create(&models.Follow{FollowerID: follower.ID, FolloweeID: target.ID}).Error; err != nil {
				return err
			}
		}
	}
	for _, user := range users {
		if err := repository.SyncFollowCounts(s.db, user.ID); err != nil {
			return err
		}
	}
	return nil
}

// sampleUsers picks up to n distinct users at random.
func (s *Seeder) sampleUsers(users []*models.User, n int) []*models.User {
	if n >= len(users) {
		n = len(users)
	}
	picked := make([]*models.User, len(users))
	copy(picked, users)
	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked[:n]
}
