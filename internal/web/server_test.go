package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/bugtable/internal/loader"
	"github.com/danielolaszy/bugtable/internal/table"
	"github.com/danielolaszy/bugtable/pkg/models"
)

var now = time.Date(2016, 3, 15, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testBugs() []models.Bug {
	return []models.Bug{
		{ID: 1, Summary: "Sticky header jumps", Status: "NEW", IsOpen: true, Product: "Core"},
		{ID: 2, Summary: "Already fixed", Status: "RESOLVED", Resolution: "FIXED", Product: "Core"},
		{ID: 3, Summary: "Font <fallback> wrong", Status: "NEW", IsOpen: true, Product: "Core"},
	}
}

func newServer() *Server {
	tbl := table.New("DevAdvocacy Bugs", func(id int) string {
		return fmt.Sprintf("https://bugzilla.mozilla.org/show_bug.cgi?id=%d", id)
	})
	return New(tbl, WithClock(func() time.Time { return now }))
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func getView(t *testing.T, srv *Server, target string) viewResponse {
	t.Helper()
	rec := get(t, srv, target)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func rowIDs(view table.View) []int {
	ids := make([]int, len(view.Rows))
	for i, r := range view.Rows {
		ids[i] = r.ID
	}
	return ids
}

func TestPageBeforeData(t *testing.T) {
	rec := get(t, newServer(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading bugs")
}

func TestPageDefaultsToOpenOnly(t *testing.T) {
	srv := newServer()
	srv.Show(loader.Snapshot{Bugs: testBugs(), FetchedAt: now.Add(-time.Hour)})

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "DevAdvocacy Bugs (Open: 2 / 3)")
	assert.Contains(t, body, "Sticky header jumps")
	assert.NotContains(t, body, "Already fixed")
	assert.Contains(t, body, `<a href="https://bugzilla.mozilla.org/show_bug.cgi?id=1" target="_blank" rel="noopener">1</a>`)
	assert.Contains(t, body, "Font &lt;fallback&gt; wrong")
	assert.Contains(t, body, "checked")
	assert.NotContains(t, body, "Loading bugs")
	assert.Contains(t, body, "Updated 1 hour ago")
}

func TestPageAllBugs(t *testing.T) {
	srv := newServer()
	srv.Show(loader.Snapshot{Bugs: testBugs(), FetchedAt: now})

	body := get(t, srv, "/?open=0").Body.String()
	assert.Contains(t, body, "Already fixed")
	assert.Contains(t, body, `data-open="false"`)
	assert.Contains(t, body, "DevAdvocacy Bugs (Open: 2 / 3)")
}

func TestPageHeaderLinksToggleSort(t *testing.T) {
	srv := newServer()
	srv.Show(loader.Snapshot{Bugs: testBugs(), FetchedAt: now})

	body := get(t, srv, "/").Body.String()
	assert.Contains(t, body, `href="?dir=asc&amp;open=1&amp;sort=id"`)

	body = get(t, srv, "/?sort=id&dir=asc").Body.String()
	assert.Contains(t, body, `href="?dir=desc&amp;open=1&amp;sort=id"`)
	assert.Contains(t, body, "ID ▲")
}

func TestViewQueryState(t *testing.T) {
	srv := newServer()
	srv.Show(loader.Snapshot{Bugs: testBugs(), FetchedAt: now})

	testCases := []struct {
		name   string
		target string
		want   []int
	}{
		{name: "Default", target: "/api/view", want: []int{1, 3}},
		{name: "Checkbox unchecked", target: "/api/view?open=0", want: []int{1, 2, 3}},
		{name: "Checkbox checked after hidden field", target: "/api/view?open=0&open=1", want: []int{1, 3}},
		{name: "Sorted descending", target: "/api/view?open=0&sort=id&dir=desc", want: []int{3, 2, 1}},
		{name: "Sorted by summary", target: "/api/view?open=0&sort=summary&dir=asc", want: []int{2, 3, 1}},
		{name: "Unknown column ignored", target: "/api/view?open=0&sort=priority&dir=asc", want: []int{1, 2, 3}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := getView(t, srv, tc.target)
			assert.Equal(t, tc.want, rowIDs(resp.View))
			assert.Equal(t, 2, resp.View.Open)
			assert.Equal(t, 3, resp.View.Total)
		})
	}
}

func TestViewStaleThenFresh(t *testing.T) {
	srv := newServer()

	srv.Show(loader.Snapshot{Bugs: testBugs(), FetchedAt: now.Add(-30 * time.Hour), Stale: true})
	resp := getView(t, srv, "/api/view")
	assert.True(t, resp.Stale)
	assert.True(t, resp.Loading)

	srv.Show(loader.Snapshot{Bugs: testBugs()[:1], FetchedAt: now})
	resp = getView(t, srv, "/api/view")
	assert.False(t, resp.Stale)
	assert.False(t, resp.Loading)
	assert.Equal(t, 1, resp.View.Total)
	require.NotNil(t, resp.FetchedAt)
	assert.True(t, now.Equal(*resp.FetchedAt))
}

func TestFailKeepsData(t *testing.T) {
	srv := newServer()
	srv.Show(loader.Snapshot{Bugs: testBugs(), FetchedAt: now.Add(-30 * time.Hour), Stale: true})
	srv.Fail(errors.New("bugzilla returned 503 Service Unavailable"))

	body := get(t, srv, "/").Body.String()
	assert.Contains(t, body, "Refresh failed: bugzilla returned 503 Service Unavailable")
	assert.Contains(t, body, "Sticky header jumps")
	assert.Contains(t, body, "(stale)")

	resp := getView(t, srv, "/api/view")
	assert.Equal(t, "bugzilla returned 503 Service Unavailable", resp.Error)
	assert.False(t, resp.Loading)
}

func TestFailWithoutData(t *testing.T) {
	srv := newServer()
	srv.Fail(errors.New("timeout"))

	body := get(t, srv, "/").Body.String()
	assert.Contains(t, body, "Refresh failed: timeout")
	assert.Contains(t, body, "Open: 0 / 0")
	assert.False(t, strings.Contains(body, "Loading bugs"))
}

func TestConcurrentShow(t *testing.T) {
	srv := newServer()
	handler := srv.Handler()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			srv.Show(loader.Snapshot{Bugs: testBugs(), FetchedAt: now})
		}()
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/view", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()
}

func TestHealthz(t *testing.T) {
	rec := get(t, newServer(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
