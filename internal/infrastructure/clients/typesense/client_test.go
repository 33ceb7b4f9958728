package typesense

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/amaplayer/search-service/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Integration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "true" {
		t.Skip("set TEST_INTEGRATION=true to run against a live Typesense")
	}

	cfg := &config.Config{
		Typesense: config.TypesenseConfig{
			URL:    "http://localhost:8108",
			APIKey: "xyz",
		},
	}

	client, err := NewClient(&cfg.Typesense)
	require.NoError(t, err)
	require.NotNil(t, client)

	ctx := context.Background()

	err = client.InitSchema(ctx)
	assert.NoError(t, err)

	doc := map[string]interface{}{
		"id":           "test-user-1",
		"doc_type":     "users",
		"search_text":  "lionel messi",
		"display_name": "Lionel Messi",
		"role":         "athlete",
		"sport":        "football",
		"is_active":    true,
		"created_at":   time.Now().Unix(),
	}
	err = client.IndexDocument(ctx, doc)
	assert.NoError(t, err)
}
