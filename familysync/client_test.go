package familysync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestClient shortens the retry timings so tests finish quickly.
func newTestClient(baseURL string) *Client {
	client := NewClient(baseURL, testLogger())
	client.backoffUnit = 5 * time.Millisecond
	client.saveTimeoutBase = time.Second
	client.saveTimeoutStep = 0
	client.loadTimeout = time.Second
	return client
}

func TestClientSave_SendsScopedSnapshot(t *testing.T) {
	var (
		mu       sync.Mutex
		gotQuery string
		gotBody  SaveRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotQuery = r.URL.Query().Get("familyId")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ok, err := client.Save(context.Background(), "fam1", ScopeTasks, []Task{
		{ID: "t1", Title: "按时起床", Category: TaskCategoryLife, Stars: 2},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "fam1", gotQuery)
	assert.Equal(t, ScopeTasks, gotBody.Scope)
	var tasks []Task
	require.NoError(t, json.Unmarshal(gotBody.Data, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.NotZero(t, gotBody.LastUpdated)
}

func TestClientSave_RetriesExactlyThreeTimes(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts = append(attempts, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ok, err := client.Save(context.Background(), "fam1", ScopeActivity, ActivityPayload{})

	// Exhausted retries are reported as ok=false, not an error.
	require.NoError(t, err)
	assert.False(t, ok)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, attempts, 3)
	gap1 := attempts[1].Sub(attempts[0])
	gap2 := attempts[2].Sub(attempts[1])
	assert.GreaterOrEqual(t, gap1, client.backoffUnit)
	assert.GreaterOrEqual(t, gap2, 2*client.backoffUnit)
}

func TestClientSave_SucceedsAfterTransientFailure(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ok, err := client.Save(context.Background(), "fam1", ScopeSettings, SettingsPayload{UserName: "小星"})
	require.NoError(t, err)
	assert.True(t, ok)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

func TestClientSave_RejectsMisuse(t *testing.T) {
	client := newTestClient("http://localhost:1")

	_, err := client.Save(context.Background(), "  ", ScopeTasks, []Task{})
	assert.Error(t, err)

	_, err = client.Save(context.Background(), "fam1", ScopeAll, []Task{})
	assert.Error(t, err)

	_, err = client.Save(context.Background(), "fam1", ScopeTasks, func() {})
	assert.Error(t, err)
}

func TestClientLoad_ReturnsScopeData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fam1", r.URL.Query().Get("familyId"))
		assert.Equal(t, "all", r.URL.Query().Get("scope"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"familyId":"fam1","userName":"小星","themeKey":"lemon","balance":4,"tasks":[],"rewards":[],"logs":{},"transactions":[]}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	data, err := client.Load(context.Background(), "fam1", ScopeAll)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "小星", data.UserName)
	require.NotNil(t, data.Balance)
	assert.Equal(t, 4, *data.Balance)
	assert.NotNil(t, data.Tasks)
	assert.Empty(t, data.Tasks)
}

func TestClientLoad_UnknownFamilyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":null}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	data, err := client.Load(context.Background(), "fam1", ScopeAll)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestClientLoad_ServerErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Load(context.Background(), "fam1", ScopeTasks)
	assert.Error(t, err)

	_, err = client.Load(context.Background(), "", ScopeTasks)
	assert.Error(t, err)
}

func TestGenerateFamilyID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateFamilyID()
		assert.Len(t, id, 26)
		for _, r := range id {
			assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'),
				"unexpected rune %q in %s", r, id)
		}
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
