package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/cache"
	"storefront/config"
	"storefront/handlers"
	"storefront/jwt"
	"storefront/mailer"
	"storefront/middleware"
	"storefront/models"
	"storefront/queue"
	"storefront/ratelimit"
	"storefront/repository"
	"storefront/routers"
)

const testPassword = "Secret123!"

type env struct {
	t        *testing.T
	cfg      config.Config
	db       *gorm.DB
	router   *gin.Engine
	tokens   *jwt.Manager
	mail     *mailer.LogMailer
	events   *queue.Recorder
	users    *repository.UserRepository
	products *repository.ProductRepository
	orders   *repository.OrderRepository
	settings *repository.SettingRepository
}

func newEnv(t *testing.T, opts ...func(*handlers.Deps)) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Env = config.EnvTest
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Server.UploadDir = t.TempDir()
	cfg.Server.MaxUploadBytes = 1024

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := config.SetupDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, repository.NewSettingRepository(db).SeedDefaults(context.Background()))

	tokens := jwt.NewManager(cfg.Auth.JWTSecret)
	mail := mailer.NewLogMailer(zap.NewNop())
	events := queue.NewRecorder()
	deps := handlers.Deps{
		Config: cfg,
		DB:     db,
		Tokens: tokens,
		Mailer: mail,
		Events: events,
		Log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	h := handlers.New(deps)
	router := routers.SetupRouters(routers.Deps{
		Config:  deps.Config,
		Handler: h,
		Auth:    middleware.NewAuth(tokens, h.Users(), zap.NewNop()),
		Cache:   cache.NewMemoryStore(),
		Limiter: ratelimit.NewMemoryLimiter(),
		Log:     zap.NewNop(),
	})

	return &env{
		t:        t,
		cfg:      deps.Config,
		db:       db,
		router:   router,
		tokens:   tokens,
		mail:     mail,
		events:   events,
		users:    repository.NewUserRepository(db),
		products: repository.NewProductRepository(db),
		orders:   repository.NewOrderRepository(db),
		settings: repository.NewSettingRepository(db),
	}
}

// do sends body as JSON unless it is already a string.
func (e *env) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// user creates a verified account and returns it with a session token.
func (e *env) user(email, role string) (*models.User, string) {
	e.t.Helper()
	hashed, err := repository.HashPassword(testPassword)
	require.NoError(e.t, err)
	u := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: email, Password: hashed, Role: role}
	require.NoError(e.t, e.users.Create(context.Background(), u))
	u.IsVerified = true
	require.NoError(e.t, e.users.Save(context.Background(), u))

	token, err := e.tokens.GenerateToken(u.ID, u.Role, time.Hour)
	require.NoError(e.t, err)
	return u, token
}

func (e *env) product(title string, price float64) *models.Product {
	e.t.Helper()
	p := &models.Product{Title: title, Price: price, Category: "Shoes", Stock: 5}
	require.NoError(e.t, e.products.Create(context.Background(), p))
	return p
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
