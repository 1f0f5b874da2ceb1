package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalake/ads-core/internal/objectstore"
)

func seededLoader(t *testing.T, objects map[string][]byte) *Loader {
	t.Helper()
	blobs := objectstore.NewLocalStore(t.TempDir())
	ctx := context.Background()
	for key, data := range objects {
		require.NoError(t, blobs.PutObject(ctx, "clients-config", key, data, "application/json"))
	}
	return NewLoader(Config{}, blobs)
}

func TestAccessToken(t *testing.T) {
	loader := seededLoader(t, map[string][]byte{
		"meta-access-token.json": []byte(`{"ACCESS_TOKEN": "EAAB-secret"}`),
	})

	token, err := loader.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EAAB-secret", token)
}

func TestAccessTokenMissingBlob(t *testing.T) {
	loader := seededLoader(t, nil)

	_, err := loader.AccessToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load access token")
}

func TestAccessTokenMissingField(t *testing.T) {
	loader := seededLoader(t, map[string][]byte{
		"meta-access-token.json": []byte(`{"OTHER": "x"}`),
	})

	_, err := loader.AccessToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ACCESS_TOKEN field")
}

func TestClients(t *testing.T) {
	loader := seededLoader(t, map[string][]byte{
		"clients.json": []byte(`[
			{"slug": "acme", "business_id": "1234567890", "project_id": "acme-prod"},
			{"slug": "globex", "business_id": "123", "project_id": "globex-prod", "google_ads_customer_id": "555-666"}
		]`),
	})

	clients, err := loader.Clients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, Client{Slug: "acme", BusinessID: "1234567890", ProjectID: "acme-prod"}, clients[0])
	assert.Equal(t, "555-666", clients[1].GoogleAdsCustomerID)
}

func TestClientsBadJSON(t *testing.T) {
	loader := seededLoader(t, map[string][]byte{
		"clients.json": []byte(`{"not": "a list"}`),
	})

	_, err := loader.Clients(context.Background())
	require.Error(t, err)
}

func TestLoaderCustomLocations(t *testing.T) {
	blobs := objectstore.NewLocalStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, blobs.PutObject(ctx, "secrets", "token.json",
		[]byte(`{"ACCESS_TOKEN": "tok"}`), "application/json"))

	loader := NewLoader(Config{Bucket: "secrets", TokenKey: "token.json"}, blobs)

	token, err := loader.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}
