package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"message-room/observability"
	"message-room/repositories"
	"message-room/search"
)

func newTestServer(t *testing.T) (*httptest.Server, repositories.IMessageRepository, repositories.IUserRepository, *search.MessageIndex) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	messages, err := repositories.NewMessageRepository(db, slog.Default(), nil)
	require.NoError(t, err)
	users, err := repositories.NewUserRepository(db)
	require.NoError(t, err)

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	index := search.NewMessageIndex(writer, slog.Default())

	mux := http.NewServeMux()
	NewHandlers(slog.Default(), messages, users, index, observability.NewStatsManager(slog.Default())).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, messages, users, index
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func Test_Messages_Endpoint_Returns_The_Backlog_In_Order(t *testing.T) {
	req := require.New(t)
	server, messages, _, _ := newTestServer(t)

	_, err := messages.StoreMessage("first", "alice")
	req.NoError(err)
	_, err = messages.StoreMessage("second", "bob")
	req.NoError(err)

	var body []map[string]any
	status := getJSON(t, server.URL+"/api/chat/messages", &body)
	req.Equal(http.StatusOK, status)
	req.Len(body, 2)
	req.Equal("first", body[0]["content"])
	req.Equal("alice", body[0]["username"])
	req.Equal("second", body[1]["content"])
}

func Test_Users_Endpoints_Report_The_Directory(t *testing.T) {
	req := require.New(t)
	server, _, users, _ := newTestServer(t)

	_, err := users.Upsert("alice")
	req.NoError(err)
	_, err = users.Upsert("bob")
	req.NoError(err)
	_, err = users.Upsert("alice")
	req.NoError(err)

	var directory []map[string]any
	status := getJSON(t, server.URL+"/api/chat/users", &directory)
	req.Equal(http.StatusOK, status)
	req.Len(directory, 2)

	var count struct {
		Count int `json:"count"`
	}
	status = getJSON(t, server.URL+"/api/chat/user-count", &count)
	req.Equal(http.StatusOK, status)
	req.Equal(2, count.Count)
}

func Test_Search_Endpoint_Requires_Terms(t *testing.T) {
	req := require.New(t)
	server, _, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/chat/search")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	// Flags alone carry no terms either
	resp, err = http.Get(server.URL + "/api/chat/search?q=--user+alice")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_Search_Endpoint_Returns_An_Empty_List_Not_Null(t *testing.T) {
	req := require.New(t)
	server, _, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/chat/search?q=nothing")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var body []search.Result
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.NotNil(body)
	req.Empty(body)
}

func Test_Health_And_Stats_Respond(t *testing.T) {
	req := require.New(t)
	server, _, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var stats map[string]any
	status := getJSON(t, server.URL+"/api/system/stats", &stats)
	req.Equal(http.StatusOK, status)
}
