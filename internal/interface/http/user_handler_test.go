package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/refhub/user-service/internal/application"
	"github.com/refhub/user-service/internal/domain/entity"
	repo "github.com/refhub/user-service/internal/domain/repository"
	"github.com/refhub/user-service/pkg/helpers"
)

type stubRepo struct {
	mu    sync.Mutex
	users []*entity.User
}

func (m *stubRepo) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.users {
		if e.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
	}
	cp := *u
	m.users = append(m.users, &cp)
	return nil
}

func (m *stubRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.users {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *stubRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.users {
		if e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *stubRepo) Update(_ context.Context, id string, p repo.Patch) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.users {
		if e.ID != id {
			continue
		}
		if p.Name != nil {
			e.Name = *p.Name
		}
		if p.Email != nil {
			e.Email = *p.Email
		}
		if p.Password != nil {
			e.Password = *p.Password
		}
		cp := *e
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (m *stubRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.users {
		if e.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *stubRepo) List(_ context.Context) ([]*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.User, 0, len(m.users))
	for _, e := range m.users {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

var _ repo.UserRepository = (*stubRepo)(nil)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	svc := userapp.NewService(&stubRepo{}, jwt, nil, nil, logger)
	h := NewUserHandler(svc, logger)

	r := gin.New()
	users := r.Group("/api/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.GET("/", h.GetAll)
		users.GET("/:id", h.GetByID)
		users.PUT("/:id", h.Update)
		users.DELETE("/:id", h.Delete)
	}
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(b)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return rr, env
}

func registerUser(t *testing.T, r *gin.Engine) entity.User {
	t.Helper()
	rr, env := do(t, r, http.MethodPost, "/api/users/register", gin.H{
		"name": "Alice", "email": "alice@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var u entity.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	return u
}

func TestRegisterEndpoint(t *testing.T) {
	r := newTestRouter()

	u := registerUser(t, r)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "s3cret-pass", u.Password)

	t.Run("missing name", func(t *testing.T) {
		rr, env := do(t, r, http.MethodPost, "/api/users/register", gin.H{
			"email": "bob@example.com", "password": "pw",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Name is required", env.Message)
	})

	t.Run("invalid email format", func(t *testing.T) {
		rr, env := do(t, r, http.MethodPost, "/api/users/register", gin.H{
			"name": "Bob", "email": "not-an-email", "password": "pw",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid email format", env.Message)
	})

	t.Run("referral name mismatch", func(t *testing.T) {
		rr, env := do(t, r, http.MethodPost, "/api/users/register", gin.H{
			"name": "Bob", "email": "bob@example.com", "password": "pw",
			"referralName": "Wrong Name", "referralEmail": "alice@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "referred user does not exist", env.Message)
	})

	t.Run("duplicate email is a generic 500", func(t *testing.T) {
		rr, env := do(t, r, http.MethodPost, "/api/users/register", gin.H{
			"name": "Alice Again", "email": "alice@example.com", "password": "pw",
		})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "error creating user", env.Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter()
	registerUser(t, r)

	rr, env := do(t, r, http.MethodPost, "/api/users/login", gin.H{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.NotEmpty(t, body.Token)

	t.Run("unknown email", func(t *testing.T) {
		rr, _ := do(t, r, http.MethodPost, "/api/users/login", gin.H{
			"email": "nobody@example.com", "password": "s3cret-pass",
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr, _ := do(t, r, http.MethodPost, "/api/users/login", gin.H{
			"email": "alice@example.com", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestUserCRUDEndpoints(t *testing.T) {
	r := newTestRouter()
	u := registerUser(t, r)

	t.Run("list", func(t *testing.T) {
		rr, env := do(t, r, http.MethodGet, "/api/users/", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var users []entity.User
		require.NoError(t, json.Unmarshal(env.Data, &users))
		require.Len(t, users, 1)
		assert.Equal(t, u.ID, users[0].ID)
	})

	t.Run("get by id", func(t *testing.T) {
		rr, env := do(t, r, http.MethodGet, "/api/users/"+u.ID, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var got entity.User
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, u.Email, got.Email)
	})

	t.Run("get unknown id", func(t *testing.T) {
		rr, _ := do(t, r, http.MethodGet, "/api/users/does-not-exist", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("sparse update", func(t *testing.T) {
		rr, env := do(t, r, http.MethodPut, "/api/users/"+u.ID, gin.H{"name": "Alice B."})
		require.Equal(t, http.StatusOK, rr.Code)
		var got entity.User
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "Alice B.", got.Name)
		assert.Equal(t, u.Email, got.Email)
	})

	t.Run("update unknown id", func(t *testing.T) {
		rr, _ := do(t, r, http.MethodPut, "/api/users/does-not-exist", gin.H{"name": "X"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete then get", func(t *testing.T) {
		rr, env := do(t, r, http.MethodDelete, "/api/users/"+u.ID, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &body))
		assert.Equal(t, "User deleted successfully", body.Message)

		rr, _ = do(t, r, http.MethodGet, "/api/users/"+u.ID, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr, _ = do(t, r, http.MethodDelete, "/api/users/"+u.ID, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
