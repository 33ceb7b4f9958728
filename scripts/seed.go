package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/amaplayer/search-service/internal/adapters/database"
	searchadapter "github.com/amaplayer/search-service/internal/adapters/search"
	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/postgres"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/typesense"
	"github.com/amaplayer/search-service/pkg/config"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	var suggestionIndex *searchadapter.TypesenseAdapter
	if err == nil {
		suggestionIndex = searchadapter.NewTypesenseAdapter(tsClient)
		if err := suggestionIndex.EnsureCollection(context.Background()); err != nil {
			log.Printf("Failed to init Typesense collection: %v", err)
			suggestionIndex = nil
		}
	} else {
		log.Printf("Typesense unavailable, seeding PostgreSQL only: %v", err)
	}

	documents := database.NewDocumentSearchAdapter(pgClient)
	events := database.NewSearchEventAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				search_documents,
				search_events
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	now := time.Now()

	// 1. Seed athlete and coach profiles
	users := []*entities.SearchDocument{
		profile("Lionel Messi", "athlete", "football", "Miami, USA", 39, "verified", now.AddDate(0, -8, 0)),
		profile("Cristiano Ronaldo", "athlete", "football", "Riyadh, Saudi Arabia", 41, "verified", now.AddDate(0, -7, -12)),
		profile("Serena Williams", "athlete", "tennis", "Palm Beach, USA", 44, "verified", now.AddDate(0, -6, -3)),
		profile("Neeraj Chopra", "athlete", "athletics", "Panipat, India", 28, "verified", now.AddDate(0, -5, -20)),
		profile("Mary Kom", "athlete", "boxing", "Imphal, India", 43, "verified", now.AddDate(0, -5, -2)),
		profile("Pep Guardiola", "coach", "football", "Manchester, UK", 55, "verified", now.AddDate(0, -4, -9)),
		profile("Ravi Shastri", "coach", "cricket", "Mumbai, India", 64, "pending", now.AddDate(0, -3, -14)),
		profile("Aarav Sharma", "athlete", "cricket", "Delhi, India", 19, "pending", now.AddDate(0, -2, -6)),
		profile("Diya Patel", "athlete", "badminton", "Ahmedabad, India", 21, "unverified", now.AddDate(0, -1, -11)),
		profile("Carlos Mendes", "coach", "basketball", "Lisbon, Portugal", 47, "unverified", now.AddDate(0, 0, -18)),
	}

	// 2. Seed training and highlight videos
	videos := []*entities.SearchDocument{
		video("Messi's greatest free kicks", "football", []string{"highlights", "skills"}, now.AddDate(0, -3, -1)),
		video("Morning training drills for sprinters", "athletics", []string{"training", "fitness"}, now.AddDate(0, -2, -22)),
		video("Cover drive masterclass", "cricket", []string{"training", "technique"}, now.AddDate(0, -2, -4)),
		video("Footwork fundamentals for badminton", "badminton", []string{"training", "technique"}, now.AddDate(0, -1, -16)),
		video("Top 10 saves of the season", "football", []string{"highlights"}, now.AddDate(0, -1, -2)),
		video("Strength routine for boxers", "boxing", []string{"fitness"}, now.AddDate(0, 0, -25)),
	}

	// 3. Seed upcoming and past events
	eventDocs := []*entities.SearchDocument{
		sportsEvent("City Marathon 2026", "athletics", "Mumbai, India", "completed", now.AddDate(0, -2, 0), now.AddDate(0, -4, 0)),
		sportsEvent("Inter-Academy Football Cup", "football", "Barcelona, Spain", "ongoing", now.AddDate(0, 0, -2), now.AddDate(0, -3, -10)),
		sportsEvent("National Badminton Trials", "badminton", "Hyderabad, India", "upcoming", now.AddDate(0, 1, 0), now.AddDate(0, -2, -15)),
		sportsEvent("Summer Boxing Gala", "boxing", "Las Vegas, USA", "upcoming", now.AddDate(0, 2, -5), now.AddDate(0, -1, -8)),
		sportsEvent("Veterans Cricket Exhibition", "cricket", "Mumbai, India", "cancelled", now.AddDate(0, 1, -12), now.AddDate(0, -1, -1)),
	}

	var docs []*entities.SearchDocument
	docs = append(docs, users...)
	docs = append(docs, videos...)
	docs = append(docs, eventDocs...)

	if err := documents.IndexBatch(ctx, docs); err != nil {
		log.Fatalf("Failed to seed documents: %v", err)
	}
	log.Printf("Seeded %d documents (%d profiles, %d videos, %d events)",
		len(docs), len(users), len(videos), len(eventDocs))

	if suggestionIndex != nil {
		if err := suggestionIndex.IndexBatch(ctx, docs); err != nil {
			log.Printf("Failed to push documents to Typesense: %v", err)
		} else {
			log.Printf("Pushed %d documents to Typesense", len(docs))
		}
	}

	// 4. Seed a week of analytics events so dashboards have data
	terms := []struct {
		term  string
		typ   entities.SearchType
		count int
		zero  bool
	}{
		{"messi", entities.SearchTypeUsers, 14, false},
		{"ronaldo", entities.SearchTypeUsers, 9, false},
		{"training drills", entities.SearchTypeVideos, 7, false},
		{"marathon", entities.SearchTypeEvents, 5, false},
		{"cover drive", entities.SearchTypeVideos, 4, false},
		{"zlatan", entities.SearchTypeUsers, 3, true},
		{"underwater hockey", entities.SearchTypeAll, 2, true},
	}

	platforms := []string{"web", "ios", "android"}
	seeded := 0
	for _, t := range terms {
		for i := 0; i < t.count; i++ {
			event := &entities.SearchEvent{
				ID:             uuid.New().String(),
				EventType:      entities.EventSearchExecuted,
				SearchTerm:     t.term,
				SearchType:     t.typ,
				ResultCount:    3 + i%5,
				ResponseTimeMs: int64(20 + i*17%180),
				Platform:       platforms[i%len(platforms)],
				SessionID:      fmt.Sprintf("seed-session-%d", i%4),
				CreatedAt:      now.AddDate(0, 0, -(i % 7)).Add(-time.Duration(i) * time.Hour),
			}
			if t.zero {
				event.EventType = entities.EventZeroResults
				event.ResultCount = 0
			}
			if err := events.LogEvent(ctx, event); err != nil {
				log.Printf("Failed to seed event for %q: %v", t.term, err)
				continue
			}
			seeded++
		}
	}

	clicks := []struct{ original, selected string }{
		{"mes", "Lionel Messi"},
		{"ron", "Cristiano Ronaldo"},
	}
	for i, c := range clicks {
		event := &entities.SearchEvent{
			ID:                 uuid.New().String(),
			EventType:          entities.EventSuggestionClicked,
			SearchTerm:         c.original,
			SearchType:         entities.SearchTypeUsers,
			SelectedSuggestion: c.selected,
			Platform:           platforms[i%len(platforms)],
			CreatedAt:          now.AddDate(0, 0, -i),
		}
		if err := events.LogEvent(ctx, event); err != nil {
			log.Printf("Failed to seed suggestion click: %v", err)
			continue
		}
		seeded++
	}

	failure := &entities.SearchEvent{
		ID:             uuid.New().String(),
		EventType:      entities.EventSearchFailed,
		SearchTerm:     "messi",
		SearchType:     entities.SearchTypeUsers,
		ResponseTimeMs: 1250,
		ErrorOccurred:  true,
		ErrorType:      "INTERNAL",
		ErrorMessage:   "connection refused",
		Platform:       "web",
		CreatedAt:      now.AddDate(0, 0, -3),
	}
	if err := events.LogEvent(ctx, failure); err != nil {
		log.Printf("Failed to seed failure event: %v", err)
	} else {
		seeded++
	}

	log.Printf("Seeded %d analytics events", seeded)
	log.Println("Seeding complete.")
}

func profile(name, role, sport, location string, age int, verification string, createdAt time.Time) *entities.SearchDocument {
	return &entities.SearchDocument{
		ID:                 uuid.New().String(),
		DocType:            entities.SearchTypeUsers,
		DisplayName:        name,
		Role:               role,
		Sport:              sport,
		Location:           location,
		Age:                age,
		VerificationStatus: verification,
		IsActive:           true,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
}

func video(title, sport string, categories []string, createdAt time.Time) *entities.SearchDocument {
	return &entities.SearchDocument{
		ID:         uuid.New().String(),
		DocType:    entities.SearchTypeVideos,
		Title:      title,
		Sport:      sport,
		Categories: categories,
		IsActive:   true,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func sportsEvent(title, sport, location, status string, startsAt, createdAt time.Time) *entities.SearchDocument {
	return &entities.SearchDocument{
		ID:          uuid.New().String(),
		DocType:     entities.SearchTypeEvents,
		Title:       title,
		Sport:       sport,
		Location:    location,
		EventStatus: status,
		StartsAt:    &startsAt,
		IsActive:    status != "cancelled",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}
