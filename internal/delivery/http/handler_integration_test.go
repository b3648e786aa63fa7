package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/zakupnik/backend/config"
	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/search"
	"github.com/zakupnik/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	// Run tests
	exitCode := m.Run()

	// Exit with the test result code
	os.Exit(exitCode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"https://*.zakupnik.ru", "http://localhost:3000"},
		},
		// Generous limits: throttling has its own tests.
		RateLimit: config.RateLimitConfig{PerIP: 6000, Burst: 1000},
	}
}

// setupTestRouter creates a test router with no services wired
func setupTestRouter() *gin.Engine {
	handler := NewHandler(nil, nil, nil, nil, zerolog.Nop())
	if handler == nil {
		panic("setupTestRouter: NewHandler returned nil")
	}

	router := SetupRouter(testConfig(), handler, zerolog.Nop())
	if router == nil {
		panic("setupTestRouter: SetupRouter returned nil *gin.Engine")
	}

	return router
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		if err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "zakupnik-backend" {
			t.Errorf("service = %v, want zakupnik-backend", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		methods := []string{"POST", "PUT", "DELETE", "PATCH"}

		for _, method := range methods {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestSearchEndpointUnconfigured tests the search endpoint without services
func TestSearchEndpointUnconfigured(t *testing.T) {
	t.Run("returns not implemented status", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"name":"Кальмар тушка с/м 1кг","quantity":2}`
		req, _ := http.NewRequest("POST", "/api/v1/search", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotImplemented {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
		}

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		if err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		errorMsg, ok := response["error"].(string)
		if !ok {
			t.Errorf("error field is not a string: %v", response["error"])
		} else if !strings.Contains(errorMsg, "not configured") {
			t.Errorf("error = %q, want to contain 'not configured'", errorMsg)
		}
	})

	t.Run("validates HTTP method", func(t *testing.T) {
		router := setupTestRouter()

		methods := []string{"GET", "PUT", "DELETE", "PATCH"}

		for _, method := range methods {
			req, _ := http.NewRequest(method, "/api/v1/search", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})

	t.Run("requires correct path", func(t *testing.T) {
		router := setupTestRouter()

		incorrectPaths := []string{
			"/api/v1/search/",
			"/api/search",
			"/search",
		}

		for _, path := range incorrectPaths {
			req, _ := http.NewRequest("POST", path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for app origin", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://app.zakupnik.ru")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "https://app.zakupnik.ru" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "https://app.zakupnik.ru")
		}

		gotCreds := w.Header().Get("Access-Control-Allow-Credentials")
		if gotCreds != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", gotCreds, "true")
		}
	})

	t.Run("search endpoint has CORS for localhost", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/v1/search", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "http://localhost:3000")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter()

		// Add a test route that panics
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req, _ := http.NewRequest("GET", "/panic", nil)
		w := httptest.NewRecorder()

		// This should not crash the test - recovery middleware should handle it
		router.ServeHTTP(w, req)

		// Gin's default recovery returns 500
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	t.Run("v1 routes are accessible", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/v1/search", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		// Should return 501 Not Implemented, not 404 Not Found
		if w.Code != http.StatusNotImplemented {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotImplemented)
		}
	})

	t.Run("non-versioned routes return 404", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/search", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/search"},
		{"GET", "/api/v1/cart"},
		{"POST", "/api/v1/admin/rules/reload"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter()

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			if err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}

// --- Mock implementations for testing with real services ---

// mockCache is an in-memory domain.CacheRepository with flush tracking
type mockCache struct {
	data    map[string][]byte
	flushed []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockCache) DeletePrefix(ctx context.Context, prefix string) error {
	m.flushed = append(m.flushed, prefix)
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

// mockCatalog serves a fixed offer pool as domain.CatalogSource
type mockCatalog struct {
	offers []domain.CandidateOffer
	err    error
}

func (m *mockCatalog) ActiveOffers(ctx context.Context, productCoreID string) ([]domain.CandidateOffer, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.CandidateOffer
	for _, o := range m.offers {
		if o.ProductCoreID == productCoreID && o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockCatalog) AllItems(ctx context.Context) ([]domain.CandidateOffer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.offers, nil
}

// mockCartRepo is an in-memory domain.CartRepository with the same
// compare-and-set behavior as the persistent store
type mockCartRepo struct {
	lines map[string]domain.CartLine
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{lines: make(map[string]domain.CartLine)}
}

func cartKey(userID, referenceID string) string {
	return userID + "\x00" + referenceID
}

func (m *mockCartRepo) Upsert(ctx context.Context, line *domain.CartLine) error {
	key := cartKey(line.UserID, line.ReferenceID)
	stored, exists := m.lines[key]
	if exists && stored.Version != line.Version {
		return domain.ErrCartConflict
	}
	if !exists && line.Version != 0 {
		return domain.ErrCartConflict
	}
	line.Version++
	m.lines[key] = *line
	return nil
}

func (m *mockCartRepo) Get(ctx context.Context, userID, referenceID string) (*domain.CartLine, error) {
	stored, ok := m.lines[cartKey(userID, referenceID)]
	if !ok {
		return nil, domain.ErrLineNotFound
	}
	return &stored, nil
}

func (m *mockCartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	var out []domain.CartLine
	for _, line := range m.lines {
		if line.UserID == userID {
			out = append(out, line)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceID < out[j].ReferenceID })
	return out, nil
}

func (m *mockCartRepo) Clear(ctx context.Context, userID string) error {
	for key, line := range m.lines {
		if line.UserID == userID {
			delete(m.lines, key)
		}
	}
	return nil
}

// mockSuppliers resolves supplier names and minimums from fixed maps
type mockSuppliers struct {
	names    map[string]string
	minimums map[string]float64
}

func (m *mockSuppliers) SupplierName(ctx context.Context, supplierID string) (string, error) {
	name, ok := m.names[supplierID]
	if !ok {
		return "", domain.ErrSupplierUnknown
	}
	return name, nil
}

func (m *mockSuppliers) SupplierMinimum(ctx context.Context, supplierID string) (float64, error) {
	minimum, ok := m.minimums[supplierID]
	if !ok {
		return 0, domain.ErrSupplierUnknown
	}
	return minimum, nil
}

func squidOffer(id string, price float64) domain.CandidateOffer {
	return domain.CandidateOffer{
		ID:            id,
		SupplierID:    "sup-1",
		Name:          "Кальмар тушка с/м 1кг",
		Price:         price,
		Active:        true,
		Pack:          domain.PackInfo{Unit: domain.UnitWeight, BaseQuantity: 1000, Confidence: 0.9},
		StepQty:       1,
		ProductCoreID: "squid",
		SuperClass:    "seafood",
	}
}

func defaultRules(t *testing.T) *usecase.RuleProvider {
	t.Helper()
	rules, err := usecase.NewRuleProvider("", search.DefaultOptions(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRuleProvider() error = %v", err)
	}
	return rules
}

// setupTestRouterWithServices creates a test router with real services over mocks
func setupTestRouterWithServices(
	catalog domain.CatalogSource,
	cartRepo domain.CartRepository,
	suppliers domain.SupplierDirectory,
	cacheRepo domain.CacheRepository,
	rules *usecase.RuleProvider,
) *gin.Engine {
	searchService := usecase.NewSearchService(catalog, cacheRepo, rules, usecase.SearchServiceConfig{}, zerolog.Nop())
	cartService := usecase.NewCartService(cartRepo, suppliers, usecase.CartServiceConfig{}, zerolog.Nop())

	handler := NewHandler(searchService, cartService, rules, cacheRepo, zerolog.Nop())
	return SetupRouter(testConfig(), handler, zerolog.Nop())
}

// TestSearchWithServices tests the search endpoint with a real service
func TestSearchWithServices(t *testing.T) {
	t.Run("returns the cheapest valid offer", func(t *testing.T) {
		catalog := &mockCatalog{offers: []domain.CandidateOffer{
			squidOffer("off-a", 520),
			squidOffer("off-b", 480),
		}}
		router := setupTestRouterWithServices(catalog, newMockCartRepo(), &mockSuppliers{}, newMockCache(), defaultRules(t))

		payload := `{"name":"Кальмар тушка с/м 1кг","quantity":2}`
		req, _ := http.NewRequest("POST", "/api/v1/search", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}

		var decision domain.MatchDecision
		if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if decision.Reason != domain.ReasonOK {
			t.Fatalf("reason = %s, want %s", decision.Reason, domain.ReasonOK)
		}
		if decision.Offer == nil || decision.Offer.ID != "off-b" {
			t.Errorf("offer = %+v, want off-b", decision.Offer)
		}
		if decision.Economics.LineTotal != 960 {
			t.Errorf("lineTotal = %.2f, want 960", decision.Economics.LineTotal)
		}
	})

	t.Run("answers 200 with a reason when nothing matches", func(t *testing.T) {
		// Pool holds only chicken; the squid search finds no candidates.
		chicken := squidOffer("off-c", 300)
		chicken.Name = "Котлеты куриные 1кг"
		chicken.ProductCoreID = "chicken"
		catalog := &mockCatalog{offers: []domain.CandidateOffer{chicken}}
		router := setupTestRouterWithServices(catalog, newMockCartRepo(), &mockSuppliers{}, newMockCache(), defaultRules(t))

		payload := `{"name":"Кальмар тушка с/м 1кг","quantity":1}`
		req, _ := http.NewRequest("POST", "/api/v1/search", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var decision domain.MatchDecision
		if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if decision.Reason != domain.ReasonCoreNoCandidates {
			t.Errorf("reason = %s, want %s", decision.Reason, domain.ReasonCoreNoCandidates)
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockCatalog{}, newMockCartRepo(), &mockSuppliers{}, newMockCache(), defaultRules(t))

		payload := `{invalid json}`
		req, _ := http.NewRequest("POST", "/api/v1/search", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for missing name", func(t *testing.T) {
		router := setupTestRouterWithServices(&mockCatalog{}, newMockCartRepo(), &mockSuppliers{}, newMockCache(), defaultRules(t))

		payload := `{"quantity":2}`
		req, _ := http.NewRequest("POST", "/api/v1/search", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["error"] == nil {
			t.Error("expected error field in response")
		}
	})

	t.Run("returns 503 when the catalog is down", func(t *testing.T) {
		catalog := &mockCatalog{err: domain.ErrCatalogUnavailable}
		router := setupTestRouterWithServices(catalog, newMockCartRepo(), &mockSuppliers{}, newMockCache(), defaultRules(t))

		payload := `{"name":"Кальмар тушка с/м 1кг","quantity":1}`
		req, _ := http.NewRequest("POST", "/api/v1/search", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})
}

// TestCartEndpoints tests the cart flow end-to-end over real services
func TestCartEndpoints(t *testing.T) {
	newCartRouter := func(t *testing.T, cartRepo *mockCartRepo) *gin.Engine {
		t.Helper()
		catalog := &mockCatalog{offers: []domain.CandidateOffer{
			squidOffer("off-a", 520),
			squidOffer("off-b", 480),
		}}
		suppliers := &mockSuppliers{
			names:    map[string]string{"sup-1": "База №1"},
			minimums: map[string]float64{"sup-1": 500},
		}
		return setupTestRouterWithServices(catalog, cartRepo, suppliers, newMockCache(), defaultRules(t))
	}

	addLine := func(t *testing.T, router *gin.Engine) *httptest.ResponseRecorder {
		t.Helper()
		payload := `{"userId":"u1","name":"Кальмар тушка с/м 1кг","quantity":2}`
		req, _ := http.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("adds a line and returns it with the decision", func(t *testing.T) {
		router := newCartRouter(t, newMockCartRepo())

		w := addLine(t, router)

		if w.Code != http.StatusCreated {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusCreated, w.Body.String())
		}

		var response struct {
			Line     domain.CartLine      `json:"line"`
			Decision domain.MatchDecision `json:"decision"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response.Line.Offer.ID != "off-b" {
			t.Errorf("line offer = %s, want off-b", response.Line.Offer.ID)
		}
		if response.Line.Version != 1 {
			t.Errorf("line version = %d, want 1", response.Line.Version)
		}
		if response.Line.LineTotal != 960 {
			t.Errorf("lineTotal = %.2f, want 960", response.Line.LineTotal)
		}
		if response.Decision.Reason != domain.ReasonOK {
			t.Errorf("decision reason = %s, want OK", response.Decision.Reason)
		}
	})

	t.Run("rejects unmatchable reference with 422", func(t *testing.T) {
		router := newCartRouter(t, newMockCartRepo())

		payload := `{"userId":"u1","name":"Продукт универсальный","quantity":1}`
		req, _ := http.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}

		var response struct {
			Decision domain.MatchDecision `json:"decision"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response.Decision.Reason != domain.ReasonCoreNotDetected {
			t.Errorf("decision reason = %s, want %s", response.Decision.Reason, domain.ReasonCoreNotDetected)
		}
	})

	t.Run("requires userId in the body", func(t *testing.T) {
		router := newCartRouter(t, newMockCartRepo())

		payload := `{"name":"Кальмар тушка с/м 1кг","quantity":1}`
		req, _ := http.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("lists cart lines for the user", func(t *testing.T) {
		repo := newMockCartRepo()
		router := newCartRouter(t, repo)
		addLine(t, router)

		req, _ := http.NewRequest("GET", "/api/v1/cart?userId=u1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response struct {
			Lines []domain.CartLine `json:"lines"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(response.Lines) != 1 {
			t.Fatalf("lines = %d, want 1", len(response.Lines))
		}
		if response.Lines[0].UserID != "u1" {
			t.Errorf("userId = %s, want u1", response.Lines[0].UserID)
		}
	})

	t.Run("requires userId query parameter", func(t *testing.T) {
		router := newCartRouter(t, newMockCartRepo())

		for _, endpoint := range []struct{ method, path string }{
			{"GET", "/api/v1/cart"},
			{"GET", "/api/v1/cart/checkout"},
			{"DELETE", "/api/v1/cart"},
		} {
			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("%s %s: Status = %d, want %d", endpoint.method, endpoint.path, w.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("empty cart lists as an empty array", func(t *testing.T) {
		router := newCartRouter(t, newMockCartRepo())

		req, _ := http.NewRequest("GET", "/api/v1/cart?userId=nobody", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), `"lines":[]`) {
			t.Errorf("body = %s, want empty lines array", w.Body.String())
		}
	})

	t.Run("checkout groups lines by supplier", func(t *testing.T) {
		repo := newMockCartRepo()
		router := newCartRouter(t, repo)
		addLine(t, router)

		req, _ := http.NewRequest("GET", "/api/v1/cart/checkout?userId=u1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}

		var response struct {
			Groups []domain.SupplierGroup `json:"groups"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(response.Groups) != 1 {
			t.Fatalf("groups = %d, want 1", len(response.Groups))
		}

		group := response.Groups[0]
		if group.SupplierName != "База №1" {
			t.Errorf("supplierName = %s, want База №1", group.SupplierName)
		}
		if group.Subtotal != 960 {
			t.Errorf("subtotal = %.2f, want 960", group.Subtotal)
		}
		// 960 over the 500 minimum: nothing to top up.
		if group.Status != domain.ReasonOK || group.Deficit != 0 {
			t.Errorf("status = %s deficit = %.2f, want OK with no deficit", group.Status, group.Deficit)
		}
	})

	t.Run("clear empties the cart", func(t *testing.T) {
		repo := newMockCartRepo()
		router := newCartRouter(t, repo)
		addLine(t, router)

		req, _ := http.NewRequest("DELETE", "/api/v1/cart?userId=u1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		req, _ = http.NewRequest("GET", "/api/v1/cart?userId=u1", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if !strings.Contains(w.Body.String(), `"lines":[]`) {
			t.Errorf("body = %s, want empty lines array", w.Body.String())
		}
	})
}

// TestRulesReloadEndpoint tests the admin rules reload endpoint
func TestRulesReloadEndpoint(t *testing.T) {
	t.Run("reloads and flushes cached decisions", func(t *testing.T) {
		catalog := &mockCatalog{offers: []domain.CandidateOffer{squidOffer("off-a", 480)}}
		cacheRepo := newMockCache()
		router := setupTestRouterWithServices(catalog, newMockCartRepo(), &mockSuppliers{}, cacheRepo, defaultRules(t))

		// Warm the cache with one decision.
		payload := `{"name":"Кальмар тушка с/м 1кг","quantity":1}`
		req, _ := http.NewRequest("POST", "/api/v1/search", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if len(cacheRepo.data) == 0 {
			t.Fatal("expected a cached decision before reload")
		}

		req, _ = http.NewRequest("POST", "/api/v1/admin/rules/reload", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}
		if len(cacheRepo.flushed) != 1 || cacheRepo.flushed[0] != "decision:" {
			t.Errorf("flushed = %v, want [decision:]", cacheRepo.flushed)
		}
		if len(cacheRepo.data) != 0 {
			t.Errorf("cache still holds %d entries after reload", len(cacheRepo.data))
		}
	})

	t.Run("answers 500 when the rules file is broken", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		rules, err := usecase.NewRuleProvider(path, search.DefaultOptions(), zerolog.Nop())
		if err != nil {
			t.Fatalf("NewRuleProvider() error = %v", err)
		}

		router := setupTestRouterWithServices(&mockCatalog{}, newMockCartRepo(), &mockSuppliers{}, newMockCache(), rules)

		if err := os.WriteFile(path, []byte("classification: ["), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		req, _ := http.NewRequest("POST", "/api/v1/admin/rules/reload", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}
