package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rnkp755/chefcognito/internal/middleware"
	"github.com/rnkp755/chefcognito/internal/models"
	"github.com/rnkp755/chefcognito/internal/service"
)

const testSecret = "test-secret"

type stubModel struct {
	replies []string
	calls   [][]service.Message
}

func (m *stubModel) Chat(ctx context.Context, messages []service.Message) (string, error) {
	m.calls = append(m.calls, messages)
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

type testEnv struct {
	router        *gin.Engine
	db            *gorm.DB
	model         *stubModel
	auth          *service.AuthService
	conversations *service.ConversationService
	preferences   *service.PreferenceService
	recipes       *service.RecipeService
}

func newTestEnv(t *testing.T, model *stubModel) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Preferences{},
		&models.ChatMessage{},
		&models.ChatSession{},
		&models.Recipe{},
		&models.RecipeSession{},
	))

	log := zap.NewNop()
	auth := service.NewAuthService(testSecret)
	preferences := service.NewPreferenceService(db)
	conversations := service.NewConversationService(db, nil, model, log)
	recipes := service.NewRecipeService(db, log)
	tools := service.NewToolRouter(conversations, recipes, preferences, log)
	workflow := service.NewChatWorkflow(model, conversations, preferences, log)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(auth))

	NewChatHandler(model, workflow, tools, conversations, preferences, log).RegisterRoutes(v1)
	NewToolHandler(tools).RegisterRoutes(v1)
	NewPreferenceHandler(preferences).RegisterRoutes(v1)

	return &testEnv{
		router:        router,
		db:            db,
		model:         model,
		auth:          auth,
		conversations: conversations,
		preferences:   preferences,
		recipes:       recipes,
	}
}

// Summarize lets the stub model double as the conversation summarizer.
func (m *stubModel) Summarize(ctx context.Context, transcript string) (string, error) {
	return "summary", nil
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(&closeNotifyRecorder{ResponseRecorder: w, closed: make(chan bool, 1)}, req)
	return w
}

// closeNotifyRecorder implements http.CloseNotifier so streaming handlers
// using gin's Context.Stream can run against httptest recorders.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool { return c.closed }

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.auth.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
