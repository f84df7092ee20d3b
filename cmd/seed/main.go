// Command seed populates a development database with fake community content.
package main

import (
	"context"
	"errors"
	"log"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"

	"frameconomics/internal/config"
	"frameconomics/internal/models"
	"frameconomics/internal/store"
)

const (
	numProfiles = 15
	numStories  = 40
	numComments = 120
	numLikes    = 200
)

var categories = []models.Category{
	models.CategorySuccessStory,
	models.CategoryChallenge,
	models.CategoryInsight,
	models.CategoryQuestion,
}

var providers = []string{"github", "google"}

var storyTags = []string{
	"reframing", "negotiation", "pricing", "habits", "mindset",
	"career", "money", "relationships", "persuasion", "boundaries",
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := store.Connect(cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	remote := store.NewGormStore(db)
	ctx := context.Background()

	profiles := seedProfiles(ctx, remote)
	stories := seedStories(ctx, remote, profiles)
	comments := seedComments(ctx, remote, profiles, stories)
	seedLikes(ctx, remote, profiles, stories, comments)

	log.Printf("Seeded %d profiles, %d stories, %d comments", len(profiles), len(stories), len(comments))
}

func seedProfiles(ctx context.Context, remote store.RemoteStore) []models.Profile {
	profiles := make([]models.Profile, 0, numProfiles)
	for i := 0; i < numProfiles; i++ {
		p := models.Profile{
			Email:          gofakeit.Email(),
			FullName:       gofakeit.Name(),
			AvatarURL:      gofakeit.ImageURL(128, 128),
			Provider:       providers[rand.Intn(len(providers))],
			Username:       gofakeit.Username(),
			Bio:            gofakeit.Sentence(8),
			RulesCompleted: rand.Intn(11),
		}
		if err := remote.Insert(ctx, store.TableProfiles, &p); err != nil {
			log.Fatalf("seed profile: %v", err)
		}
		profiles = append(profiles, p)
	}
	return profiles
}

func seedStories(ctx context.Context, remote store.RemoteStore, profiles []models.Profile) []models.Story {
	stories := make([]models.Story, 0, numStories)
	for i := 0; i < numStories; i++ {
		tags := []string{
			storyTags[rand.Intn(len(storyTags))],
			storyTags[rand.Intn(len(storyTags))],
		}
		var ruleID *int
		if rand.Intn(2) == 0 {
			n := rand.Intn(10) + 1
			ruleID = &n
		}
		s := models.Story{
			UserID:   profiles[rand.Intn(len(profiles))].ID,
			Title:    gofakeit.Sentence(6),
			Content:  gofakeit.Paragraph(2, 4, 12, " "),
			Category: categories[rand.Intn(len(categories))],
			RuleID:   ruleID,
			Tags:     tags,
		}
		if err := remote.Insert(ctx, store.TableStories, &s); err != nil {
			log.Fatalf("seed story: %v", err)
		}
		stories = append(stories, s)
	}
	return stories
}

func seedComments(ctx context.Context, remote store.RemoteStore, profiles []models.Profile, stories []models.Story) []models.Comment {
	comments := make([]models.Comment, 0, numComments)
	for i := 0; i < numComments; i++ {
		c := models.Comment{
			StoryID: stories[rand.Intn(len(stories))].ID,
			UserID:  profiles[rand.Intn(len(profiles))].ID,
			Content: gofakeit.Sentence(12),
		}
		// Roughly a third of comments reply to an earlier comment on the
		// same story, so seeded threads actually nest.
		if len(comments) > 0 && rand.Intn(3) == 0 {
			for _, earlier := range rand.Perm(len(comments)) {
				if comments[earlier].StoryID == c.StoryID {
					pid := comments[earlier].ID
					c.ParentID = &pid
					break
				}
			}
		}
		if err := remote.Insert(ctx, store.TableComments, &c); err != nil {
			log.Fatalf("seed comment: %v", err)
		}
		comments = append(comments, c)
	}
	return comments
}

func seedLikes(ctx context.Context, remote store.RemoteStore, profiles []models.Profile, stories []models.Story, comments []models.Comment) {
	for i := 0; i < numLikes; i++ {
		l := models.Like{UserID: profiles[rand.Intn(len(profiles))].ID}
		if rand.Intn(2) == 0 {
			id := stories[rand.Intn(len(stories))].ID
			l.StoryID = &id
		} else {
			id := comments[rand.Intn(len(comments))].ID
			l.CommentID = &id
		}
		err := remote.Insert(ctx, store.TableLikes, &l)
		if err != nil && !errors.Is(err, store.ErrDuplicateLike) {
			// The unique index rejects repeat picks; anything else is fatal.
			log.Fatalf("seed like: %v", err)
		}
	}
}
