package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/amaplayer/search-service/pkg/config"
	"github.com/amaplayer/search-service/pkg/retry"
	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const (
	DocumentsCollection = "search_documents"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	// Test connection with retry
	err := retry.DoNotify(
		context.Background(),
		retry.DefaultConfig(),
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, next time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).
				Msg("Typesense not reachable yet")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the search documents collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == DocumentsCollection {
			log.Debug().Str("collection", DocumentsCollection).Msg("Typesense collection already exists")
			return nil
		}
	}

	schema := &api.CollectionSchema{
		Name: DocumentsCollection,
		Fields: []api.Field{
			{
				Name: "id",
				Type: "string",
			},
			{
				Name:  "doc_type",
				Type:  "string",
				Facet: pointer.True(),
			},
			{
				Name:     "display_name",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name:     "title",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name: "search_text",
				Type: "string",
			},
			{
				Name:     "role",
				Type:     "string",
				Facet:    pointer.True(),
				Optional: pointer.True(),
			},
			{
				Name:     "sport",
				Type:     "string",
				Facet:    pointer.True(),
				Optional: pointer.True(),
			},
			{
				Name:     "location",
				Type:     "string",
				Optional: pointer.True(),
			},
			{
				Name:     "categories",
				Type:     "string[]",
				Facet:    pointer.True(),
				Optional: pointer.True(),
			},
			{
				Name:     "event_status",
				Type:     "string",
				Facet:    pointer.True(),
				Optional: pointer.True(),
			},
			{
				Name:     "verification_status",
				Type:     "string",
				Facet:    pointer.True(),
				Optional: pointer.True(),
			},
			{
				Name:     "tags",
				Type:     "string[]",
				Optional: pointer.True(),
			},
			{
				Name: "is_active",
				Type: "bool",
			},
			{
				Name: "created_at",
				Type: "int64",
			},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = c.client.Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", DocumentsCollection).Msg("Created Typesense collection")
	return nil
}

// IndexDocument indexes a search document
func (c *Client) IndexDocument(ctx context.Context, document map[string]interface{}) error {
	_, err := c.client.Collection(DocumentsCollection).Documents().Upsert(ctx, document)
	return err
}
