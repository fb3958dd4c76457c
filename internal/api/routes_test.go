package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ajatus_server/internal/auth"
	"ajatus_server/internal/database/dbtest"
	"ajatus_server/internal/middleware"
	"ajatus_server/internal/services"
	"ajatus_server/internal/utils/broker"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T, jwtSecret string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	users := services.NewUserService(db, 0)
	usage := services.NewUsageService(db, 0)
	keys := services.NewAPIKeyService(db)
	store := services.NewChatServiceDB(db)

	r := gin.New()
	SetupRoutes(r, Dependencies{
		Version:       "0.1.0",
		DB:            sqlDB,
		Chat:          services.NewChatService(services.NewDemoGenerator(""), store, users, usage, broker.NewBroker()),
		Conversations: store,
		Users:         users,
		Usage:         usage,
		APIKeys:       keys,
		Nodes:         services.NewNodeService(db),
		Catalog:       services.DefaultModelCatalog(),
		Resolver:      auth.NewResolver(keys, jwtSecret),
		RateLimiter:   middleware.NewRateLimiter(1000, 1000),
		Metrics:       middleware.NewHTTPMetrics(),
		JWTSecret:     jwtSecret,
		TokenTTL:      time.Hour,
	})
	return &testServer{router: r, db: db}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// register creates a user and returns a fresh API key for them.
func (s *testServer) register(t *testing.T, email, username string) (string, string) {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/users", "", gin.H{"email": email, "username": username, "password": "correct horse battery"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	userID := decode(t, w)["id"].(string)

	plaintext, _, err := services.NewAPIKeyService(s.db).Create(context.Background(), userID, "test", 0)
	require.NoError(t, err)
	return userID, plaintext
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{
		"message": "Ajatuskumppani API",
		"status":  "healthy",
		"version": "0.1.0",
		"docs":    "/docs",
	}, decode(t, w))

	w = s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "0.1.0", body["version"])
	assert.Equal(t, true, body["model_loaded"])
	_, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
	assert.NoError(t, err)

	w = s.do(http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "connected", "llm": "ready", "memory": "ready"}, body["services"])
}

func TestAPIHealthDegradedWhenPingFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	r := gin.New()
	r.GET("/api/v1/health", apiHealthHandler(sqlDB))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	body := decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "disconnected", body["services"].(map[string]interface{})["database"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModels(t *testing.T) {
	s := newTestServer(t, "")
	w := s.do(http.MethodGet, "/api/v1/models", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	models := decode(t, w)["models"].([]interface{})
	require.Len(t, models, 1)
	assert.Equal(t, map[string]interface{}{
		"id":     "mistral-7b-instruct",
		"name":   "Mistral 7B Instruct",
		"status": "available",
	}, models[0])
}

func TestChatPlaceholderUser(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodPost, "/api/v1/chat", "anything", gin.H{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)

	response := body["response"].(string)
	assert.Contains(t, response, "hello")
	assert.Equal(t, float64(len(strings.Fields(response))), body["tokens_used"])
	assert.Equal(t, "mistral-7b-instruct", body["model"])
	assert.GreaterOrEqual(t, body["processing_time"].(float64), 0.0)
	assert.NotContains(t, body, "conversation_id")
}

func TestChatValidation(t *testing.T) {
	s := newTestServer(t, "")
	tooHigh := 2.5

	tests := []struct {
		name string
		body gin.H
	}{
		{"empty message", gin.H{"message": ""}},
		{"missing message", gin.H{}},
		{"message too long", gin.H{"message": strings.Repeat("a", 10001)}},
		{"temperature out of range", gin.H{"message": "hi", "temperature": tooHigh}},
		{"max tokens out of range", gin.H{"message": "hi", "max_tokens": 4096}},
		{"bad history role", gin.H{"message": "hi", "history": []gin.H{{"role": "system", "content": "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/chat", "anything", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w := s.do(http.MethodPost, "/api/v1/chat", "anything", gin.H{"message": strings.Repeat("a", 10000)})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlaceholderCannotOwnKeys(t *testing.T) {
	s := newTestServer(t, "")
	w := s.do(http.MethodPost, "/api/v1/api-keys", "anything", gin.H{"name": "bootstrap"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatRequiresBearer(t *testing.T) {
	s := newTestServer(t, "")
	w := s.do(http.MethodPost, "/api/v1/chat", "", gin.H{"message": "hello"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisteredChatFlow(t *testing.T) {
	s := newTestServer(t, "")
	_, key := s.register(t, "aino@example.fi", "aino")

	w := s.do(http.MethodPost, "/api/v1/chat", key, gin.H{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	conversationID := decode(t, w)["conversation_id"].(string)
	require.NotEmpty(t, conversationID)

	w = s.do(http.MethodPost, "/api/v1/chat", key, gin.H{"message": "again", "conversation_id": conversationID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/conversations/"+conversationID+"/messages", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["messages"], 4)

	w = s.do(http.MethodGet, "/api/v1/users/me/usage", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode(t, w)
	assert.Equal(t, float64(4), usage["tokens_used_today"])
	assert.Equal(t, float64(100000-4), usage["remaining_today"])

	w = s.do(http.MethodDelete, "/api/v1/conversations/"+conversationID, key, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/api/v1/conversations", key, nil)
	assert.Empty(t, decode(t, w)["conversations"])
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t, "")
	userID, key := s.register(t, "aino@example.fi", "aino")

	w := s.do(http.MethodPost, "/api/v1/users", "", gin.H{"email": "aino@example.fi", "username": "other", "password": "correct horse battery"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/users", "", gin.H{"email": "not-an-email", "username": "x", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/users/me", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, userID, me["id"])
	assert.NotContains(t, me, "hashed_password")

	w = s.do(http.MethodPut, "/api/v1/users/me/preferences", key, gin.H{"language": "en", "verbosity": "high"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prefs := decode(t, w)
	assert.Equal(t, "en", prefs["language"])
	assert.Equal(t, "high", prefs["verbosity"])
	assert.Equal(t, "friendly", prefs["tone"])

	w = s.do(http.MethodPut, "/api/v1/users/me/preferences", key, gin.H{"verbosity": "extreme"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIKeyEndpoints(t *testing.T) {
	s := newTestServer(t, "")
	_, key := s.register(t, "aino@example.fi", "aino")

	w := s.do(http.MethodPost, "/api/v1/api-keys", key, gin.H{"name": "laptop", "expires_in_days": 30})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	newKey := created["key"].(string)
	assert.True(t, strings.HasPrefix(newKey, auth.APIKeyPrefix))
	assert.NotNil(t, created["expires_at"])

	w = s.do(http.MethodGet, "/api/v1/api-keys", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["api_keys"], 2)
	assert.NotContains(t, w.Body.String(), newKey)

	w = s.do(http.MethodDelete, "/api/v1/api-keys/"+created["id"].(string), key, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/users/me", newKey, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNodeEndpoints(t *testing.T) {
	s := newTestServer(t, "")
	_, key := s.register(t, "aino@example.fi", "aino")

	w := s.do(http.MethodPost, "/api/v1/nodes", key, gin.H{"node_address": "10.0.0.1:9000", "stake_amount": 100})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	nodeID := decode(t, w)["id"].(string)

	w = s.do(http.MethodPost, "/api/v1/nodes", key, gin.H{"node_address": "10.0.0.1:9000"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/nodes/"+nodeID+"/heartbeat", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode(t, w)["last_heartbeat"])

	w = s.do(http.MethodGet, "/api/v1/nodes", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["nodes"], 1)
}

func TestLogin(t *testing.T) {
	disabled := newTestServer(t, "")
	w := disabled.do(http.MethodPost, "/api/v1/users/login", "", gin.H{"email": "aino@example.fi", "password": "correct horse battery"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s := newTestServer(t, testSecret)
	userID, _ := s.register(t, "aino@example.fi", "aino")

	w = s.do(http.MethodPost, "/api/v1/users/login", "", gin.H{"email": "aino@example.fi", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/users/login", "", gin.H{"email": "aino@example.fi", "password": "correct horse battery"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode(t, w)["access_token"].(string)

	w = s.do(http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, decode(t, w)["id"])

	// With a secret configured, arbitrary bearer strings are no longer accepted.
	w = s.do(http.MethodGet, "/api/v1/users/me", "anything", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	w := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
