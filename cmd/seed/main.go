// Command seed populates the database with demo content: users,
// commentable targets of every kind, threaded comments and likes.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"colloquy/internal/config"
	"colloquy/internal/database"
	"colloquy/internal/markdown"
	"colloquy/internal/middleware"
	"colloquy/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numThreads := flag.Int("threads", 40, "Number of comment threads to create")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg, middleware.NewLogger(cfg.Env))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := seedUsers(db, *numUsers)
	targets := seedTargets(db)
	seedThreads(db, users, targets, *numThreads)

	log.Printf("Seeded %d users, %d targets, %d threads", len(users), len(targets), *numThreads)
}

func seedUsers(db *gorm.DB, n int) []models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		user := models.User{
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			FullName:     gofakeit.Name(),
			Email:        fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			PasswordHash: string(hash),
			IsModerator:  i < 2,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		users = append(users, user)
	}
	return users
}

func seedTargets(db *gorm.DB) []models.Commentable {
	var targets []models.Commentable

	for i := 0; i < 8; i++ {
		post := models.Post{
			Title: gofakeit.Sentence(6),
			Slug:  fmt.Sprintf("%s-%d", gofakeit.Word(), i),
		}
		if err := db.Create(&post).Error; err != nil {
			log.Fatalf("Failed to create post: %v", err)
		}
		targets = append(targets, &post)
	}
	for i := 0; i < 6; i++ {
		asset := models.Asset{
			Name:      gofakeit.ProductName(),
			FilmTitle: gofakeit.MovieName(),
		}
		if err := db.Create(&asset).Error; err != nil {
			log.Fatalf("Failed to create asset: %v", err)
		}
		targets = append(targets, &asset)
	}
	for i := 0; i < 6; i++ {
		section := models.Section{
			Name:     gofakeit.Sentence(3),
			Training: gofakeit.BookTitle(),
			Index:    i + 1,
		}
		if err := db.Create(&section).Error; err != nil {
			log.Fatalf("Failed to create section: %v", err)
		}
		targets = append(targets, &section)
	}
	for i := 0; i < 4; i++ {
		version := models.CharacterVersion{
			CharacterName: gofakeit.PetName(),
			Number:        i + 1,
		}
		if err := db.Create(&version).Error; err != nil {
			log.Fatalf("Failed to create character version: %v", err)
		}
		targets = append(targets, &version)
	}
	return targets
}

func seedThreads(db *gorm.DB, users []models.User, targets []models.Commentable, n int) {
	for i := 0; i < n; i++ {
		target := targets[rand.Intn(len(targets))]
		root := seedComment(db, users, target, nil)

		// A few replies, occasionally nested one level deeper.
		for r := 0; r < rand.Intn(4); r++ {
			reply := seedComment(db, users, target, &root.ID)
			if rand.Intn(3) == 0 {
				seedComment(db, users, target, &reply.ID)
			}
		}
	}
}

func seedComment(db *gorm.DB, users []models.User, target models.Commentable, replyTo *uint) *models.Comment {
	author := users[rand.Intn(len(users))]
	message := gofakeit.Paragraph(1, 2, 12, " ")

	comment := models.Comment{
		UserID:      &author.ID,
		ReplyToID:   replyTo,
		Message:     message,
		MessageHTML: markdown.Render(message),
		CreatedAt:   time.Now().Add(-time.Duration(rand.Intn(720)) * time.Hour),
	}
	if err := db.Create(&comment).Error; err != nil {
		log.Fatalf("Failed to create comment: %v", err)
	}
	if err := db.Create(target.NewCommentBinding(comment.ID)).Error; err != nil {
		log.Fatalf("Failed to create comment binding: %v", err)
	}

	// Random likes from distinct users.
	for _, idx := range rand.Perm(len(users))[:rand.Intn(5)] {
		like := models.Like{UserID: &users[idx].ID, CommentID: comment.ID}
		if err := db.Create(&like).Error; err != nil {
			log.Fatalf("Failed to create like: %v", err)
		}
	}
	return &comment
}
