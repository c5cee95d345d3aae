package githubprovider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v56/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"context"
)

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)

	client := github.NewClient(nil)
	client.BaseURL = baseURL
	client.UploadURL = baseURL
	return &Provider{client: client}
}

func TestRepoMetadataReturnsDefaultBranch(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"full_name":      "acme/payments",
			"default_branch": "main",
			"archived":       false,
		})
	}))

	meta, err := p.RepoMetadata(context.Background(), "acme", "payments")
	require.NoError(t, err)
	assert.Equal(t, "acme/payments", meta["full_name"])
	assert.Equal(t, "main", meta["default_branch"])
}
