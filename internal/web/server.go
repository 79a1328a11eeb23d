// Package web serves the bug table as an HTML page and a JSON endpoint.
package web

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/danielolaszy/bugtable/internal/loader"
	"github.com/danielolaszy/bugtable/internal/logging"
	"github.com/danielolaszy/bugtable/internal/table"
	"github.com/danielolaszy/bugtable/internal/termtable"
)

// Server holds the latest collection and renders it per request. Show and
// Fail may be called from another goroutine while requests are served.
type Server struct {
	table *table.Table
	now   func() time.Time

	mu       sync.RWMutex
	snapshot loader.Snapshot
	hasData  bool
	loading  bool
	err      error
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now for the Age column.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server with no data. Until Show or Fail is called, pages
// render a loading banner.
func New(tbl *table.Table, opts ...Option) *Server {
	s := &Server{
		table:   tbl,
		now:     time.Now,
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Show replaces the displayed collection. A stale snapshot keeps the loading
// banner up since a refresh follows it.
func (s *Server) Show(snapshot loader.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snapshot
	s.hasData = true
	s.loading = snapshot.Stale
	s.err = nil
}

// Fail records a failed refresh. Data already shown stays visible.
func (s *Server) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	s.err = err
}

// Handler returns the gin engine serving "/" and "/api/view".
func (s *Server) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.SetHTMLTemplate(pageTemplate)

	engine.GET("/", s.handlePage)
	engine.GET("/api/view", s.handleView)
	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return engine
}

// requestLogger logs each request through the application logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

type current struct {
	snapshot loader.Snapshot
	hasData  bool
	loading  bool
	err      error
}

func (s *Server) current() current {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return current{snapshot: s.snapshot, hasData: s.hasData, loading: s.loading, err: s.err}
}

type headerLink struct {
	Label string
	Href  string
}

type pageData struct {
	View    table.View
	Headers []headerLink
	Sort    string
	Dir     string
	Status  string
	Error   string
	Loading bool
	HasData bool
}

func (s *Server) handlePage(c *gin.Context) {
	cur := s.current()
	state := parseState(c)
	now := s.now()
	view := s.table.Render(cur.snapshot.Bugs, state, now)

	data := pageData{
		View:    view,
		Headers: make([]headerLink, len(view.Headers)),
		Loading: cur.loading,
		HasData: cur.hasData,
	}
	if state.Sort.Active() {
		data.Sort = state.Sort.Column
		data.Dir = state.Sort.Direction.String()
	}
	for i, h := range view.Headers {
		next := table.Update(state, table.SortBy{Column: h.Key})
		data.Headers[i] = headerLink{Label: termtable.HeaderLabel(h), Href: "?" + encodeState(next).Encode()}
	}
	if cur.err != nil {
		data.Error = cur.err.Error()
	}
	if !cur.snapshot.FetchedAt.IsZero() {
		data.Status = "Updated " + humanize.RelTime(cur.snapshot.FetchedAt, now, "ago", "from now")
		if cur.snapshot.Stale {
			data.Status += " (stale)"
		}
	}

	c.HTML(http.StatusOK, "page", data)
}

// viewResponse is the JSON body of /api/view.
type viewResponse struct {
	View      table.View `json:"view"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Stale     bool       `json:"stale"`
	Loading   bool       `json:"loading"`
	Error     string     `json:"error,omitempty"`
}

func (s *Server) handleView(c *gin.Context) {
	cur := s.current()
	resp := viewResponse{
		View:    s.table.Render(cur.snapshot.Bugs, parseState(c), s.now()),
		Stale:   cur.snapshot.Stale,
		Loading: cur.loading,
	}
	if !cur.snapshot.FetchedAt.IsZero() {
		fetchedAt := cur.snapshot.FetchedAt
		resp.FetchedAt = &fetchedAt
	}
	if cur.err != nil {
		resp.Error = cur.err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// parseState reads the view state from the query string. "open" may repeat
// because the page form sends a hidden "0" ahead of the checkbox; the last
// value wins. "sort" and "dir" are replayed as header clicks so unknown
// columns are ignored.
func parseState(c *gin.Context) table.State {
	state := table.NewState()

	if values := c.QueryArray("open"); len(values) > 0 {
		last := values[len(values)-1]
		state = table.Update(state, table.SetOpenOnly{Value: last != "0" && last != "false"})
	}

	if column := c.Query("sort"); column != "" {
		state = table.Update(state, table.SortBy{Column: column})
		if table.ParseDirection(c.Query("dir")) == table.Descending {
			state = table.Update(state, table.SortBy{Column: column})
		}
	}

	return state
}

// encodeState is the inverse of parseState.
func encodeState(state table.State) url.Values {
	values := url.Values{}
	if state.OpenOnly {
		values.Set("open", "1")
	} else {
		values.Set("open", "0")
	}
	if state.Sort.Active() {
		values.Set("sort", state.Sort.Column)
		values.Set("dir", state.Sort.Direction.String())
	}
	return values
}
