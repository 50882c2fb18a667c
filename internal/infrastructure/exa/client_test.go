package exa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealscout/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "exa-key", BaseURL: server.URL}, zaptest.NewLogger(t))
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "exa-key", r.Header.Get("x-api-key"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "blue shirt buy", req.Query)
		assert.Equal(t, 5, req.NumResults)

		w.Write([]byte(`{"results":[
			{"title":"Blue Shirt","url":"https://a.example/blue","score":0.8},
			{"title":"No URL","url":""},
			{"title":"Other","url":"https://b.example/shirt"}
		]}`))
	})

	hits, err := client.Search(context.Background(), "blue shirt buy")

	require.NoError(t, err)
	assert.Equal(t, []domain.SearchHit{
		{Title: "Blue Shirt", URL: "https://a.example/blue", Score: 0.8},
		{Title: "Other", URL: "https://b.example/shirt"},
	}, hits)
}

func TestFindSimilar(t *testing.T) {
	t.Run("sends seed url", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/findSimilar", r.URL.Path)

			var req searchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "https://shop.example/lamp", req.URL)
			assert.Equal(t, 10, req.NumResults)

			w.Write([]byte(`{"results":[{"title":"Lamp","url":"https://c.example/lamp","score":0.7}]}`))
		})

		hits, err := client.FindSimilar(context.Background(), "https://shop.example/lamp", 10)

		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, 0.7, hits[0].Score)
	})

	t.Run("maps fetch document error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"FETCH_DOCUMENT_ERROR: could not fetch"}`))
		})

		_, err := client.FindSimilar(context.Background(), "https://shop.example/lamp", 10)

		assert.True(t, errors.Is(err, domain.ErrFetchDocument))
		assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	})

	t.Run("other 422 is a plain upstream failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"bad numResults"}`))
		})

		_, err := client.FindSimilar(context.Background(), "https://shop.example/lamp", 10)

		assert.False(t, errors.Is(err, domain.ErrFetchDocument))
		assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	})
}

func TestContents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contents", r.URL.Path)

		var req contentsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"https://c.example/lamp"}, req.URLs)
		assert.True(t, req.Text)

		w.Write([]byte(`{"results":[{"url":"https://c.example/lamp","title":"Lamp","text":"Nice lamp $20.00","image":"https://img/main.jpg","extras":{"imageLinks":["https://img/2.jpg"]}}]}`))
	})

	contents, err := client.Contents(context.Background(), []string{"https://c.example/lamp"})

	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "Nice lamp $20.00", contents[0].Text)
	assert.Equal(t, []string{"https://img/main.jpg", "https://img/2.jpg"}, contents[0].ImageURLs)
}

func TestContents_NoURLs(t *testing.T) {
	client := NewClient(Config{APIKey: "exa-key", BaseURL: "http://127.0.0.1:0"}, nil)

	contents, err := client.Contents(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestSearch_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	hits, err := client.Search(context.Background(), "lamp")

	assert.Nil(t, hits)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}
