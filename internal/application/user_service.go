package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/refhub/user-service/internal/domain/entity"
	repo "github.com/refhub/user-service/internal/domain/repository"
	"github.com/refhub/user-service/pkg/helpers"
	"github.com/refhub/user-service/pkg/validation"
)

var (
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidReferral    = errors.New("referred user does not exist")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCreateUser         = errors.New("error creating user")
)

// MissingFieldError reports a required request field that was absent or
// empty. Whitespace-only values count as present.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string { return e.Field + " is required" }

// Service orchestrates registration, login and profile CRUD.
// Redis and Pub are optional: a nil client disables caching and event
// publishing without changing any externally visible behavior.
type Service struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Pub    *helpers.RabbitPublisher
	Logger *logrus.Logger
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, pub *helpers.RabbitPublisher, logger *logrus.Logger) *Service {
	return &Service{
		Repo:   r,
		JWT:    jwt,
		Redis:  rdb,
		Pub:    pub,
		Logger: logger,
	}
}

const cacheTTL = 10 * time.Minute

func cacheKey(userID string) string {
	return "user:record:" + userID
}

type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	ReferralName  string
	ReferralEmail string
}

// Register validates the input, hashes the password and persists a new
// user. Referral linking applies only when both referral fields arrive
// together; a lone name or email is ignored.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if in.Name == "" {
		return nil, &MissingFieldError{Field: "Name"}
	}
	if in.Email == "" {
		return nil, &MissingFieldError{Field: "Email"}
	}
	if !validation.IsValidEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	if in.Password == "" {
		return nil, &MissingFieldError{Field: "Password"}
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Error("hash password failed")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &entity.User{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
	}

	if in.ReferralName != "" && in.ReferralEmail != "" {
		ref, err := s.Repo.GetByEmail(ctx, in.ReferralEmail)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrInvalidReferral
			}
			return nil, fmt.Errorf("referral lookup: %w", err)
		}
		if ref.Name != in.ReferralName {
			return nil, ErrInvalidReferral
		}
		u.ReferralName = in.ReferralName
		u.ReferralEmail = in.ReferralEmail
	}

	if err := s.Repo.Create(ctx, u); err != nil {
		// The cause stays server-side; callers get a generic creation
		// error even for duplicate emails.
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", in.Email).Error("create user failed")
		}
		return nil, ErrCreateUser
	}

	s.cacheSet(ctx, u)
	s.publishRegistered(ctx, u)
	return u, nil
}

// Login verifies credentials and returns a signed bearer token. The
// user record itself is not returned.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !helpers.CheckPassword(u.Password, password) {
		return "", ErrInvalidCredentials
	}

	token, _, err := s.JWT.GenerateToken(u.ID, u.Email, u.Name)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token failed")
		}
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// GetAll returns every stored user record verbatim. The listing is
// unbounded; pagination is out of scope for this service.
func (s *Service) GetAll(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if s.Redis != nil {
		var cached entity.User
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, cacheKey(id), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.cacheSet(ctx, u)
	return u, nil
}

// UpdateInput is a sparse patch; empty fields are left untouched.
type UpdateInput struct {
	Name     string
	Email    string
	Password string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*entity.User, error) {
	patch := repo.Patch{}
	if in.Name != "" {
		patch.Name = &in.Name
	}
	if in.Email != "" {
		patch.Email = &in.Email
	}
	if in.Password != "" {
		hash, err := helpers.HashPassword(in.Password)
		if err != nil {
			if s.Logger != nil {
				s.Logger.WithError(err).Error("hash password failed")
			}
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.Password = &hash
	}

	u, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.cacheSet(ctx, u)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if s.Redis != nil {
		if err := helpers.RedisDel(ctx, s.Redis, cacheKey(id)); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("cache invalidation failed")
		}
	}
	return nil
}

func (s *Service) cacheSet(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, cacheKey(u.ID), u, cacheTTL); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("cache write failed")
	}
}

type userRegisteredEvent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (s *Service) publishRegistered(ctx context.Context, u *entity.User) {
	if s.Pub == nil {
		return
	}
	ev := userRegisteredEvent{ID: u.ID, Name: u.Name, Email: u.Email, RegisteredAt: time.Now().UTC()}
	if err := s.Pub.PublishJSON(ctx, ev); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("publish registered event failed")
	}
}
