// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Unit tests run against in-memory repositories; integration tests are
// skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"notea/internal/cache"
	"notea/internal/database"
	"notea/internal/middleware"
	"notea/internal/models"
	"notea/internal/session"
	"notea/internal/store"
	"notea/internal/testutil"
	"notea/internal/workspace"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "notea")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "notea")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "preview:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Sessions   *session.Store
	Users      *store.UserStore
	Categories *store.CategoryStore
	Notes      *store.NoteStore
	Previews   *cache.PreviewCache
	Workspaces *workspace.Registry
	Clock      *testutil.FakeClock

	Auth        *Auth
	CategoryAPI *Categories
	NoteAPI     *Notes
}

// newTestEnv creates a complete test environment backed by PostgreSQL and
// Valkey. Debounced writes only happen when the test advances Clock.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	users := store.NewUserStore(db)
	categories := store.NewCategoryStore(db)
	notes := store.NewNoteStore(db)
	previews := cache.NewPreviewCache(vk, time.Minute)
	clock := testutil.NewFakeClock()
	registry := workspace.NewRegistry(categories, workspace.Options{
		QuietPeriod: time.Second,
		Clock:       clock,
		Logger:      quietLogger(),
	})
	t.Cleanup(func() { registry.Shutdown(context.Background()) })

	return &testEnv{
		DB:          db,
		Valkey:      vk,
		Sessions:    sessions,
		Users:       users,
		Categories:  categories,
		Notes:       notes,
		Previews:    previews,
		Workspaces:  registry,
		Clock:       clock,
		Auth:        NewAuth(sessions, users, registry),
		CategoryAPI: NewCategories(registry),
		NoteAPI:     NewNotes(notes, registry, previews),
	}
}

// createTestUser signs up a throwaway user and removes it when the test ends.
func createTestUser(t *testing.T, env *testEnv) *models.User {
	t.Helper()
	email := "handler-" + uuid.NewString()[:8] + "@example.com"
	u, err := env.Users.Create(context.Background(), email, "password123", "Handler Test")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { env.Users.Delete(context.Background(), u.ID) })
	return u
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       "test@example.com",
		DisplayName: "Test User",
		CreatedAt:   time.Now(),
	}
}

// apiRequest builds a request carrying a JSON body, the user's session and
// the given chi URL parameters (alternating key, value).
func apiRequest(t *testing.T, method, target string, body any, userID uuid.UUID, params ...string) *http.Request {
	t.Helper()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != uuid.Nil {
		ctx = ctxWithSession(ctx, testSession(userID))
	}
	return req.WithContext(ctx)
}

// decodeBody unmarshals a recorded JSON response.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// errorBody returns the "error" field of a JSON error response.
func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}

// memCategories is an in-memory workspace.CategoryRepo.
type memCategories struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]models.Category
	writes int
}

func newMemCategories() *memCategories {
	return &memCategories{byID: map[uuid.UUID]models.Category{}}
}

// seed stores categories named names for userID, General first and active.
func (m *memCategories) seed(userID uuid.UUID, names ...string) []models.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Category, len(names))
	for i, name := range names {
		c := models.Category{ID: uuid.New(), UserID: userID, Name: name, Position: i, IsActive: i == 0}
		m.byID[c.ID] = c
		out[i] = c
	}
	return out
}

func (m *memCategories) position(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Position
}

func (m *memCategories) name(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Name
}

func (m *memCategories) UpdatePosition(_ context.Context, id uuid.UUID, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Position = position
	m.byID[id] = c
	m.writes++
	return nil
}

func (m *memCategories) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Category
	for _, c := range m.byID {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memCategories) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *c
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.byID[created.ID] = created
	return &created, nil
}

func (m *memCategories) Rename(_ context.Context, id uuid.UUID, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	c.Name = name
	m.byID[id] = c
	return &c, nil
}

func (m *memCategories) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memCategories) SetActive(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cid, c := range m.byID {
		if c.UserID == userID {
			c.IsActive = cid == id
			m.byID[cid] = c
		}
	}
	return nil
}

// memNotes is an in-memory NoteRepo.
type memNotes struct {
	mu   sync.Mutex
	byID map[uuid.UUID]models.Note
	now  time.Time
}

func newMemNotes() *memNotes {
	return &memNotes{byID: map[uuid.UUID]models.Note{}, now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memNotes) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memNotes) add(userID uuid.UUID, categoryID *uuid.UUID, title, content string) models.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := models.Note{ID: uuid.New(), UserID: userID, CategoryID: categoryID, Title: title, Content: content}
	n.CreatedAt = m.tick()
	n.UpdatedAt = n.CreatedAt
	m.byID[n.ID] = n
	return n
}

func (m *memNotes) sorted(keep func(models.Note) bool) []models.Note {
	var out []models.Note
	for _, n := range m.byID {
		if keep(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (m *memNotes) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(n models.Note) bool { return n.UserID == userID }), nil
}

func (m *memNotes) ListByCategory(_ context.Context, userID, categoryID uuid.UUID) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(n models.Note) bool { return n.UserID == userID && n.InCategory(categoryID) }), nil
}

func (m *memNotes) FindByID(_ context.Context, id uuid.UUID) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *memNotes) Create(_ context.Context, n *models.Note) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *n
	created.ID = uuid.New()
	created.CreatedAt = m.tick()
	created.UpdatedAt = created.CreatedAt
	m.byID[created.ID] = created
	return &created, nil
}

func (m *memNotes) Update(_ context.Context, id uuid.UUID, title, content string) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	n.Title, n.Content, n.UpdatedAt = title, content, m.tick()
	m.byID[id] = n
	return &n, nil
}

func (m *memNotes) ChangeCategory(_ context.Context, id, categoryID uuid.UUID) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	n.CategoryID, n.UpdatedAt = &categoryID, m.tick()
	m.byID[id] = n
	return &n, nil
}

func (m *memNotes) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

// memPreviews is an in-memory PreviewCache that counts hits.
type memPreviews struct {
	mu          sync.Mutex
	entries     map[string]string
	hits        int
	invalidated []uuid.UUID
}

func newMemPreviews() *memPreviews {
	return &memPreviews{entries: map[string]string{}}
}

func (p *memPreviews) Get(_ context.Context, noteID uuid.UUID, updatedAt time.Time) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.entries[cache.PreviewKey(noteID, updatedAt)]
	if ok {
		p.hits++
	}
	return v, ok
}

func (p *memPreviews) Set(_ context.Context, noteID uuid.UUID, updatedAt time.Time, preview string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[cache.PreviewKey(noteID, updatedAt)] = preview
}

func (p *memPreviews) Invalidate(_ context.Context, noteID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated = append(p.invalidated, noteID)
}

// unitEnv wires the category and note handlers to in-memory repositories.
type unitEnv struct {
	userID     uuid.UUID
	cats       []models.Category // General, Work, Personal
	categories *memCategories
	notes      *memNotes
	previews   *memPreviews
	clock      *testutil.FakeClock
	registry   *workspace.Registry

	categoryAPI *Categories
	noteAPI     *Notes
}

func newUnitEnv(t *testing.T) *unitEnv {
	t.Helper()
	e := &unitEnv{
		userID:     uuid.New(),
		categories: newMemCategories(),
		notes:      newMemNotes(),
		previews:   newMemPreviews(),
		clock:      testutil.NewFakeClock(),
	}
	e.cats = e.categories.seed(e.userID, models.GeneralCategory, "Work", "Personal")
	e.registry = workspace.NewRegistry(e.categories, workspace.Options{
		QuietPeriod: time.Second,
		Clock:       e.clock,
		Logger:      quietLogger(),
	})
	t.Cleanup(func() { e.registry.Shutdown(context.Background()) })
	e.categoryAPI = NewCategories(e.registry)
	e.noteAPI = NewNotes(e.notes, e.registry, e.previews)
	return e
}

// serve runs h against req and returns the recorded response.
func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}
