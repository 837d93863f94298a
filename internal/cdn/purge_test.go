package cdn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func (c *Client) overridePurgeEndpointForTest(endpoint string) {
	c.endpoint = endpoint
}

func TestPurgeSplitsIntoBatchesOfThirty(t *testing.T) {
	var requests [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req purgeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req.Files)
		_ = json.NewEncoder(w).Encode(purgeResponse{Success: true})
	}))
	defer srv.Close()

	client := &Client{cfg: Config{ZoneID: "zone", APIToken: "token"}, httpClient: srv.Client()}
	client.overridePurgeEndpointForTest(srv.URL + "/%s")

	urls := make([]string, 65)
	for i := range urls {
		urls[i] = "https://cdn.example.com/photo" + string(rune('a'+i%26)) + ".jpg"
	}

	result := client.Purge(context.Background(), urls)
	require.True(t, result.Success)
	require.Len(t, result.PurgedURLs, 65)
	require.Empty(t, result.FailedURLs)
	require.Len(t, requests, 3)
	require.Len(t, requests[0], 30)
	require.Len(t, requests[1], 30)
	require.Len(t, requests[2], 5)
}

func TestPurgeMissingConfigFailsWithoutRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(Config{})
	result := client.Purge(context.Background(), []string{"https://cdn.example.com/a.jpg"})

	require.False(t, result.Success)
	require.Equal(t, []string{"https://cdn.example.com/a.jpg"}, result.FailedURLs)
	require.False(t, called)
}

func TestPurgeBatchFailureMarksURLsFailedWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(purgeResponse{Success: false, Errors: []struct {
			Message string `json:"message"`
		}{{Message: "rate limited"}}})
	}))
	defer srv.Close()

	client := &Client{cfg: Config{ZoneID: "zone", APIToken: "token"}, httpClient: srv.Client()}
	client.overridePurgeEndpointForTest(srv.URL + "/%s")

	result := client.Purge(context.Background(), []string{"https://cdn.example.com/a.jpg"})
	require.False(t, result.Success)
	require.Equal(t, []string{"https://cdn.example.com/a.jpg"}, result.FailedURLs)
}
