package elasticsearch_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/trend-radar/internal/elasticsearch"
	"github.com/DeafMist/trend-radar/internal/models"
)

type fakeCluster struct {
	calls     []string
	bulkLines []string
	search    map[string]any
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	switch {
	case r.URL.Path == "/":
		w.WriteHeader(http.StatusOK)
	case strings.HasSuffix(r.URL.Path, "/_delete_by_query"):
		_, _ = w.Write([]byte(`{"deleted": 3}`))
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				f.bulkLines = append(f.bulkLines, line)
			}
		}
		_, _ = w.Write([]byte(`{"errors": false, "items": []}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_ = json.NewDecoder(r.Body).Decode(&f.search)
		_, _ = w.Write([]byte(`{"hits": {"total": {"value": 1}, "hits": [{"_source": {"id": "d1", "title": "Budget vote", "engagement_score": 9}}]}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	}
}

func newClient(t *testing.T) (*elasticsearch.Client, *fakeCluster) {
	t.Helper()
	cluster := &fakeCluster{}
	server := httptest.NewServer(cluster)
	t.Cleanup(server.Close)

	client, err := elasticsearch.New(server.URL, "trend", nil)
	require.NoError(t, err)
	return client, cluster
}

func TestReplaceAll(t *testing.T) {
	client, cluster := newClient(t)

	docs := []models.IndexedArticle{
		{ID: "d1", Title: "One"},
		{ID: "d2", Title: "Two"},
	}
	require.NoError(t, client.ReplaceAll(context.Background(), docs))

	require.Equal(t, []string{"POST /trend/_delete_by_query", "POST /trend/_bulk"}, cluster.calls)
	require.Len(t, cluster.bulkLines, 4)
	require.JSONEq(t, `{"index": {"_id": "d1"}}`, cluster.bulkLines[0])
	require.Contains(t, cluster.bulkLines[1], `"title":"One"`)
}

func TestReplaceAllWithNoDocsOnlyClears(t *testing.T) {
	client, cluster := newClient(t)

	require.NoError(t, client.ReplaceAll(context.Background(), nil))
	require.Equal(t, []string{"POST /trend/_delete_by_query"}, cluster.calls)
}

func TestSearchArticles(t *testing.T) {
	client, cluster := newClient(t)

	result, err := client.SearchArticles(context.Background(), elasticsearch.SearchParams{
		Query:  "budget",
		Source: "Wire",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), result.Total)
	require.Len(t, result.Items, 1)
	require.Equal(t, "Budget vote", result.Items[0].Title)

	require.Equal(t, float64(20), cluster.search["size"])
	sort := cluster.search["sort"].([]any)[0].(map[string]any)
	require.Contains(t, sort, "engagement_score")
}

func TestWaitReady(t *testing.T) {
	client, cluster := newClient(t)

	require.NoError(t, client.WaitReady(context.Background()))
	require.Equal(t, []string{"HEAD /"}, cluster.calls)
}

func TestWaitReadyStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.New(server.URL, "trend", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, client.WaitReady(ctx), context.Canceled)
}
