package routes

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/postboard/config"
	"github.com/cppla/postboard/models"
	"github.com/cppla/postboard/utils"
)

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newTestServer(t *testing.T) *browser {
	t.Helper()
	cfg := config.AppConfig{
		DatabaseURL:        "sqlite://:memory:",
		SecretKey:          "test-secret",
		SessionCookieName:  "session",
		SessionMaxAgeHours: 1,
		RateLimitPerMinute: 1000,
		CacheTTLSeconds:    60,
		GinMode:            "test",
		LogLevel:           "silent",
	}
	db, err := config.InitDatabase(cfg, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })

	srv := httptest.NewServer(SetupRouter(cfg, db, utils.NewMemoryCache(), nil))
	t.Cleanup(srv.Close)
	return newBrowser(t, srv.URL)
}

func newBrowser(t *testing.T, base string) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: base, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (b *browser) get(path string) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

func read(t *testing.T, resp *http.Response) (int, string, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func TestForumScenario(t *testing.T) {
	b := newTestServer(t)

	code, loc, _ := b.post("/register", credentials("alice", "pw"))
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/login", loc)
	_, _, body := b.get("/login")
	assert.Contains(t, body, "Account created. Please log in.")

	code, loc, _ = b.post("/register", credentials("alice", "other"))
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/register", loc)
	_, _, body = b.get("/register")
	assert.Contains(t, body, "Username already taken")

	code, loc, _ = b.get("/create")
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/login?next=%2Fcreate", loc)

	form := credentials("alice", "wrong")
	form.Set("next", "/create")
	code, loc, _ = b.post("/login", form)
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/login?next=%2Fcreate", loc)
	_, _, body = b.get(loc)
	assert.Contains(t, body, "Invalid username or password")
	assert.Contains(t, body, `value="/create"`)

	form = credentials("alice", "pw")
	form.Set("next", "/create")
	code, loc, _ = b.post("/login", form)
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/create", loc)

	code, _, body = b.get("/create")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Logged in")

	code, loc, _ = b.post("/create", url.Values{"title": {"  "}, "content": {"World"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/create", loc)
	_, _, body = b.get("/create")
	assert.Contains(t, body, "Title and content are required")

	code, loc, _ = b.post("/create", url.Values{"title": {"Hello"}, "content": {"World"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/", loc)

	code, _, body = b.get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `<a href="/post/1">Hello</a>`)
	assert.Contains(t, body, "by alice")

	code, _, body = b.get("/post/1")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "World")
	assert.Contains(t, body, "No replies yet.")

	code, loc, _ = b.post("/post/1/reply", url.Values{"content": {" "}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/post/1", loc)
	_, _, body = b.get("/post/1")
	assert.Contains(t, body, "Reply cannot be empty")

	code, loc, _ = b.post("/post/1/reply", url.Values{"content": {"Nice"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/post/1", loc)
	_, _, body = b.get("/post/1")
	assert.Contains(t, body, "Reply added")
	assert.Contains(t, body, "Nice")

	code, _, _ = b.post("/post/999/reply", url.Values{"content": {"Nice"}})
	assert.Equal(t, http.StatusNotFound, code)

	code, loc, _ = b.get("/logout")
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/", loc)
	_, _, body = b.get("/")
	assert.Contains(t, body, "Logged out")
	assert.Contains(t, body, `href="/login"`)

	code, loc, _ = b.post("/post/1/reply", url.Values{"content": {"again"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/login?next=%2Fpost%2F1%2Freply", loc)

	code, loc, _ = b.get("/post/1/reply")
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/post/1", loc)
}

func TestNotFound(t *testing.T) {
	b := newTestServer(t)
	for _, path := range []string{"/post/999", "/post/abc", "/post/0", "/nope"} {
		code, _, body := b.get(path)
		assert.Equal(t, http.StatusNotFound, code, path)
		assert.Contains(t, body, "does not exist", path)
	}
}

func TestLogin_RejectsOffsiteNext(t *testing.T) {
	b := newTestServer(t)
	code, _, _ := b.post("/register", credentials("bob", "pw"))
	require.Equal(t, http.StatusFound, code)

	form := credentials("bob", "pw")
	form.Set("next", "//evil.example/")
	code, loc, _ := b.post("/login", form)
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/", loc)
}

func TestLogin_NextFromQuery(t *testing.T) {
	b := newTestServer(t)
	code, _, _ := b.post("/register", credentials("bob", "pw"))
	require.Equal(t, http.StatusFound, code)

	code, loc, _ := b.post("/login?next=%2Fpost%2F1", credentials("bob", "pw"))
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/post/1", loc)
}

func TestTamperedSessionIsAnonymous(t *testing.T) {
	b := newTestServer(t)
	base, err := url.Parse(b.base)
	require.NoError(t, err)
	b.client.Jar.SetCookies(base, []*http.Cookie{{Name: "session", Value: "eyJhbGciOiJIUzI1NiJ9.eyJ1aWQiOjF9.forged"}})

	code, loc, _ := b.get("/create")
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/login?next=%2Fcreate", loc)
}

func TestHealthAndMetrics(t *testing.T) {
	b := newTestServer(t)

	code, _, body := b.get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, _, body = b.get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "postboard_http_requests_total")
}

func TestOverlongFieldsGetNotices(t *testing.T) {
	b := newTestServer(t)

	code, loc, _ := b.post("/register", credentials(strings.Repeat("a", 81), "pw"))
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/register", loc)
	_, _, body := b.get("/register")
	assert.Contains(t, body, "Username must be at most 80 characters")

	code, _, _ = b.post("/register", credentials("carol", "pw"))
	require.Equal(t, http.StatusFound, code)
	code, _, _ = b.post("/login", credentials("carol", "pw"))
	require.Equal(t, http.StatusFound, code)

	code, loc, _ = b.post("/create", url.Values{"title": {strings.Repeat("t", 201)}, "content": {"body"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/create", loc)
	_, _, body = b.get("/create")
	assert.Contains(t, body, "Title must be at most 200 characters")
}
