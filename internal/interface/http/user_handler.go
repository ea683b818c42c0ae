package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/refhub/user-service/internal/application"
	"github.com/refhub/user-service/pkg/response"
	"github.com/refhub/user-service/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// Presence checks live in the service so the error order and messages
// stay stable; binding tags only reject malformed JSON here.
type registerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	ReferralName  string `json:"referralName"`
	ReferralEmail string `json:"referralEmail"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		ReferralName:  req.ReferralName,
		ReferralEmail: req.ReferralEmail,
	})
	if err != nil {
		var missing *userapp.MissingFieldError
		switch {
		case errors.As(err, &missing):
			response.Error(c, http.StatusBadRequest, missing.Error(), nil)
		case errors.Is(err, userapp.ErrInvalidEmail):
			response.Error(c, http.StatusBadRequest, "invalid email format", nil)
		case errors.Is(err, userapp.ErrInvalidReferral):
			response.Error(c, http.StatusBadRequest, "referred user does not exist", nil)
		default:
			h.Logger.WithError(err).Error("register failed")
			response.Error(c, http.StatusInternalServerError, "error creating user", nil)
		}
		return
	}

	response.Success(c, http.StatusCreated, u, "user created", nil)
}

// Login POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, userapp.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		default:
			h.Logger.WithError(err).Error("login failed")
			response.Error(c, http.StatusInternalServerError, "error logging in user", nil)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token}, "login successful", nil)
}

// GetAll GET /api/users/
func (h *UserHandler) GetAll(c *gin.Context) {
	users, err := h.Svc.GetAll(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("list users failed")
		response.Error(c, http.StatusInternalServerError, "error fetching users", nil)
		return
	}
	response.Success(c, http.StatusOK, users, "users", nil)
}

// GetByID GET /api/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	u, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("get user failed")
		response.Error(c, http.StatusInternalServerError, "error fetching user", nil)
		return
	}
	response.Success(c, http.StatusOK, u, "user", nil)
}

// Update PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Update(c.Request.Context(), c.Param("id"), userapp.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("update user failed")
		response.Error(c, http.StatusInternalServerError, "error updating user", nil)
		return
	}

	response.Success(c, http.StatusOK, u, "user updated", nil)
}

// Delete DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("delete user failed")
		response.Error(c, http.StatusInternalServerError, "error deleting user", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "User deleted successfully"}, "user deleted", nil)
}
