package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rpupo63/portfolio-backend/admin"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/portfolio"
	"github.com/rpupo63/portfolio-backend/services"
)

const testOrigin = "https://site.example"

type testEnv struct {
	router   http.Handler
	db       database.Database
	registry *admin.Registry
	uploads  int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db := database.New(gormDB)
	require.NoError(t, db.Migrate(context.Background()))

	env := &testEnv{db: db}

	var cloud *httptest.Server
	cloud = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "preset", r.FormValue("upload_preset"))
		env.uploads++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"secure_url":%q,"public_id":"projects/%d"}`, cloud.URL+"/image.png", env.uploads)
	}))
	t.Cleanup(cloud.Close)

	images := services.NewCloudinaryStore("demo", "preset", services.WithBaseURL(cloud.URL))
	sessions := auth.NewProvider(auth.Credentials{Username: "admin", Password: "secret"}, []byte("test-secret"), time.Hour)
	t.Cleanup(sessions.Teardown)

	adminRepo := portfolio.NewRepository(db.ProjectRepo(), models.ScopeAll)
	publicRepo := portfolio.NewRepository(db.ProjectRepo(), models.ScopePublished)
	env.registry = admin.NewRegistry(adminRepo, images, sessions)
	t.Cleanup(env.registry.Close)

	env.router = NewRouter(Dependencies{
		DB:          db,
		Published:   publicRepo,
		Sessions:    sessions,
		Controllers: env.registry,
	}, withAllowedOrigins([]string{testOrigin}), withSecureCookies(false))
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type adminBody struct {
	State struct {
		Mode        string            `json:"mode"`
		Draft       map[string]any    `json:"draft"`
		FieldErrors map[string]string `json:"field_errors"`
		Projects    []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			DisplayOrder int    `json:"display_order"`
		} `json:"projects"`
	} `json:"state"`
	Notifications []struct {
		Level   string `json:"level"`
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"notifications"`
	Result json.RawMessage `json:"result"`
}

func decodeAdmin(t *testing.T, rec *httptest.ResponseRecorder) adminBody {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body adminBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (b adminBody) messages() []string {
	out := make([]string, len(b.Notifications))
	for i, n := range b.Notifications {
		out[i] = n.Message
	}
	return out
}

func (b adminBody) projectIDs() []string {
	out := make([]string, len(b.State.Projects))
	for i, p := range b.State.Projects {
		out[i] = p.ID
	}
	return out
}

func (e *testEnv) createProject(t *testing.T, token, title string, published bool) adminBody {
	t.Helper()
	decodeAdmin(t, e.do(t, http.MethodPost, "/admin/editor", token, nil))
	decodeAdmin(t, e.do(t, http.MethodPatch, "/admin/editor", token, map[string]any{
		"title":       title,
		"description": title + " description",
		"published":   published,
	}))
	return decodeAdmin(t, e.do(t, http.MethodPost, "/admin/editor/submit", token, nil))
}

func uploadRequest(t *testing.T, token string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/editor/image", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func pngBytes() []byte {
	header := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return append(header, bytes.Repeat([]byte{0}, 512)...)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAdminRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/admin/state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/admin/state", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"password":"is required"`)

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookies[0])
	sessionRec := httptest.NewRecorder()
	env.router.ServeHTTP(sessionRec, req)
	assert.Equal(t, http.StatusOK, sessionRec.Code)
	assert.Contains(t, sessionRec.Body.String(), `"username":"admin"`)
}

func TestLogoutDropsController(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	decodeAdmin(t, env.do(t, http.MethodGet, "/admin/state", token, nil))
	assert.Equal(t, 1, env.registry.Len())

	rec := env.do(t, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, env.registry.Len())

	rec = env.do(t, http.MethodGet, "/admin/state", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePublishAndBrowse(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	opened := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/editor", token, nil))
	assert.Equal(t, "editing", opened.State.Mode)

	decodeAdmin(t, env.do(t, http.MethodPatch, "/admin/editor", token, map[string]any{
		"title":       "  Portfolio  ",
		"description": "Personal site",
		"live_url":    "https://site.example",
		"published":   true,
	}))
	tagged := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/editor/tags", token, map[string]string{"tag": "go"}))
	assert.JSONEq(t, `{"added":true}`, string(tagged.Result))
	decodeAdmin(t, env.do(t, http.MethodPost, "/admin/editor/tags", token, map[string]string{"tag": "react"}))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, uploadRequest(t, token, pngBytes()))
	uploaded := decodeAdmin(t, rec)
	assert.Contains(t, uploaded.messages(), "Image uploaded successfully")
	assert.Equal(t, 1, env.uploads)
	assert.Equal(t, "projects/1", uploaded.State.Draft["cloudinary_public_id"])

	submitted := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/editor/submit", token, nil))
	assert.Equal(t, "viewing", submitted.State.Mode)
	assert.Contains(t, submitted.messages(), "Project created successfully")
	require.Len(t, submitted.State.Projects, 1)
	assert.Equal(t, "Portfolio", submitted.State.Projects[0].Title)
	assert.Equal(t, 1, submitted.State.Projects[0].DisplayOrder)

	env.createProject(t, token, "Draft only", false)

	rec = env.do(t, http.MethodGet, "/projects", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog struct {
		Projects []map[string]any `json:"projects"`
		Tags     []string         `json:"tags"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Equal(t, 1, catalog.Total)
	assert.Equal(t, []string{"go", "react"}, catalog.Tags)
	require.Len(t, catalog.Projects, 1)
	assert.True(t, strings.HasSuffix(catalog.Projects[0]["display_image_url"].(string), "/image.png"))

	id := submitted.State.Projects[0].ID
	rec = env.do(t, http.MethodGet, "/projects/"+id, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/projects/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	repo := env.db.ProjectRepo()
	for i, f := range []models.ProjectFields{
		{Title: "Go API", Description: "REST service", Tags: []string{"go", "api"}, Published: true},
		{Title: "Dashboard", Description: "React frontend for the API", Tags: []string{"react"}, Published: true},
		{Title: "CLI", Description: "Go tooling", Tags: []string{"go"}, Published: true},
	} {
		f.DisplayOrder = i + 1
		_, err := repo.Create(ctx, f)
		require.NoError(t, err)
	}

	titlesFor := func(query string) []string {
		rec := env.do(t, http.MethodGet, "/projects"+query, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Projects []struct {
				Title string `json:"title"`
			} `json:"projects"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		out := []string{}
		for _, p := range resp.Projects {
			out = append(out, p.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Go API", "Dashboard", "CLI"}, titlesFor(""))
	assert.Equal(t, []string{"Go API", "Dashboard"}, titlesFor("?search=api"))
	assert.Equal(t, []string{"Go API", "CLI"}, titlesFor("?tag=go"))
	assert.Equal(t, []string{"Go API"}, titlesFor("?tag=go&tag=api"))
	assert.Equal(t, []string{"Go API"}, titlesFor("?tag=go,api"))
	assert.Equal(t, []string{"Go API", "CLI"}, titlesFor("?tag=go&tag=go"))
	assert.Empty(t, titlesFor("?search=api&tag=go&tag=react"))
}

func TestSubmitValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	decodeAdmin(t, env.do(t, http.MethodPost, "/admin/editor", token, nil))
	decodeAdmin(t, env.do(t, http.MethodPatch, "/admin/editor", token, map[string]any{"github_url": "not a url"}))

	rec := env.do(t, http.MethodPost, "/admin/editor/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "title")
	assert.Contains(t, resp.Fields, "description")
	assert.Contains(t, resp.Fields, "github_url")

	state := decodeAdmin(t, env.do(t, http.MethodGet, "/admin/state", token, nil))
	assert.Equal(t, "editing", state.State.Mode)
	assert.Contains(t, state.State.FieldErrors, "title")
	assert.Empty(t, state.State.Projects)
}

func TestUploadRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	decodeAdmin(t, env.do(t, http.MethodPost, "/admin/editor", token, nil))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, uploadRequest(t, token, []byte("just some text, not an image at all")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.uploads)

	state := decodeAdmin(t, env.do(t, http.MethodGet, "/admin/state", token, nil))
	assert.Contains(t, state.messages(), "Please select an image file")
}

func TestReorderAndDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	env.createProject(t, token, "A", true)
	env.createProject(t, token, "B", true)
	created := env.createProject(t, token, "C", true)
	ids := created.projectIDs()
	require.Len(t, ids, 3)

	reordered := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/reorder", token, map[string][]string{
		"ids": {ids[2], ids[0], ids[1]},
	}))
	assert.Contains(t, reordered.messages(), "Projects reordered successfully")
	assert.Equal(t, []string{ids[2], ids[0], ids[1]}, reordered.projectIDs())

	rec := env.do(t, http.MethodPost, "/admin/reorder", token, map[string][]string{"ids": {ids[0], ids[1]}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	moved := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/reorder/move", token, map[string]int{"from": 0, "to": 2}))
	assert.JSONEq(t, `{"moved":true}`, string(moved.Result))
	assert.Equal(t, []string{ids[0], ids[1], ids[2]}, moved.projectIDs())

	noop := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/reorder/move", token, map[string]int{"from": 1, "to": 9}))
	assert.JSONEq(t, `{"moved":false}`, string(noop.Result))

	decodeAdmin(t, env.do(t, http.MethodPost, "/admin/projects/"+ids[1]+"/delete", token, nil))
	cancelled := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/delete/cancel", token, nil))
	assert.Len(t, cancelled.State.Projects, 3)

	rec = env.do(t, http.MethodPost, "/admin/delete/confirm", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	decodeAdmin(t, env.do(t, http.MethodPost, "/admin/projects/"+ids[1]+"/delete", token, nil))
	deleted := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/delete/confirm", token, nil))
	assert.Contains(t, deleted.messages(), "Project deleted successfully")
	assert.Equal(t, []string{ids[0], ids[2]}, deleted.projectIDs())
}

func TestEditExistingProject(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	created := env.createProject(t, token, "Before", false)
	id := created.State.Projects[0].ID

	opened := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/editor", token, map[string]string{"project_id": id}))
	assert.Equal(t, "Before", opened.State.Draft["title"])

	decodeAdmin(t, env.do(t, http.MethodPatch, "/admin/editor", token, map[string]any{"title": "After"}))
	updated := decodeAdmin(t, env.do(t, http.MethodPost, "/admin/editor/submit", token, nil))
	assert.Contains(t, updated.messages(), "Project updated successfully")
	require.Len(t, updated.State.Projects, 1)
	assert.Equal(t, "After", updated.State.Projects[0].Title)
	assert.Equal(t, 1, updated.State.Projects[0].DisplayOrder)

	rec := env.do(t, http.MethodPost, "/admin/editor", token, map[string]string{"project_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/projects", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/projects", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
