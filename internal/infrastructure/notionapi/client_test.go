package notionapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marsops/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.NotionConfig {
	return &config.NotionConfig{
		Token:      "secret-token",
		DatabaseID: "db-123",
		Version:    "2022-06-28",
	}
}

func pageJSON(id, name string, value float64) map[string]interface{} {
	return map[string]interface{}{
		"id": id,
		"properties": map[string]interface{}{
			"Name": map[string]interface{}{
				"type":  "title",
				"title": []interface{}{map[string]interface{}{"plain_text": name}},
			},
			"Value": map[string]interface{}{
				"type":   "number",
				"number": value,
			},
			"Status": map[string]interface{}{
				"type":   "select",
				"select": map[string]interface{}{"name": "Active"},
			},
		},
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil, time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(&config.NotionConfig{Token: "t"}, time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)

	client, err := NewClient(testConfig(), time.Second)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestClient_QueryDatabase_Paginates(t *testing.T) {
	var cursors []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases/db-123/query", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.EqualValues(t, queryPageSize, payload["page_size"])

		cursor, _ := payload["start_cursor"].(string)
		cursors = append(cursors, cursor)

		switch cursor {
		case "":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results":     []interface{}{pageJSON("p1", "Acme MSA", 120000), pageJSON("p2", "Globex SOW", 45500)},
				"has_more":    true,
				"next_cursor": "cursor-2",
			})
		case "cursor-2":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"results":     []interface{}{pageJSON("p3", "Initech NDA", 0)},
				"has_more":    false,
				"next_cursor": nil,
			})
		default:
			t.Fatalf("unexpected cursor %q", cursor)
		}
	}))
	defer server.Close()

	client, err := NewClient(testConfig(), 5*time.Second, WithBaseURL(server.URL))
	require.NoError(t, err)

	pages, err := client.QueryDatabase(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, []string{"", "cursor-2"}, cursors)

	assert.Equal(t, "p1", pages[0].ID)
	assert.Equal(t, "Acme MSA", pages[0].Properties["Name"].PlainText())
	assert.InDelta(t, 120000, pages[0].Properties["Value"].NumberValue(), 0.001)
	assert.Equal(t, "Active", pages[0].Properties["Status"].SelectName())
	assert.Equal(t, "Initech NDA", pages[2].Properties["Name"].PlainText())
}

func TestClient_QueryDatabase_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"object":"error","status":401,"code":"unauthorized"}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(), 5*time.Second, WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.QueryDatabase(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_UpdatePageProperties(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(map[string]string{"id": "p1"})
	}))
	defer server.Close()

	client, err := NewClient(testConfig(), 5*time.Second, WithBaseURL(server.URL))
	require.NoError(t, err)

	err = client.UpdatePageProperties(context.Background(), "p1", map[string]interface{}{
		"Value": map[string]interface{}{"number": 130000},
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1/pages/p1", gotPath)
	assert.Contains(t, gotPayload, "properties")

	err = client.UpdatePageProperties(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestPropertyValue_Accessors(t *testing.T) {
	empty := PropertyValue{Type: "number"}
	assert.Zero(t, empty.NumberValue())
	assert.Empty(t, empty.SelectName())
	assert.Empty(t, empty.DateStart())
	assert.Empty(t, empty.PlainText())

	rich := PropertyValue{
		Type:     "rich_text",
		RichText: []RichText{{PlainText: "multi "}, {PlainText: "fragment"}},
	}
	assert.Equal(t, "multi fragment", rich.PlainText())
}
