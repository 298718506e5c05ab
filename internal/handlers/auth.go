package handlers

import (
	"context"
	"net/http"

	"github.com/vaughan-dsouza/lmsauth/internal/apperr"
	"github.com/vaughan-dsouza/lmsauth/internal/auth"
	"github.com/vaughan-dsouza/lmsauth/internal/logging"
	"github.com/vaughan-dsouza/lmsauth/internal/service"
	"github.com/vaughan-dsouza/lmsauth/internal/utils"
)

// AuthService is what the JSON API needs from the service layer.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) error
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Profile(ctx context.Context, id auth.Identity) (*service.Profile, error)
}

// AuthObserver counts authentication outcomes.
type AuthObserver interface {
	ObserveAuth(operation, result string)
}

type AuthHandler struct {
	svc AuthService
	obs AuthObserver
	log logging.Logger
}

func NewAuthHandler(svc AuthService, obs AuthObserver, log logging.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, obs: obs, log: log}
}

// ----------- Request/Response DTOs -------------

type registerReq struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResp struct {
	Message string `json:"message"`
}

type loginResp struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type profileResp struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// -------------- REGISTER ----------------------

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.obs.ObserveAuth("register", "validation")
		return
	}

	err := h.svc.Register(r.Context(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	h.obs.ObserveAuth("register", outcome(err))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusCreated, messageResp{Message: "User registered successfully"})
}

// -------------- LOGIN ------------------------

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.obs.ObserveAuth("login", "validation")
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	h.obs.ObserveAuth("login", outcome(err))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, loginResp{Message: "Login successful", Token: res.Token})
}

// -------------- PROFILE (protected) ----------------

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	p, err := h.svc.Profile(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, profileResp{Email: p.Email, Status: p.Status})
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	renderError(w, err)
}

// renderError writes err as {"error": ...} with the status of its kind.
func renderError(w http.ResponseWriter, err error) {
	utils.JSONError(w, apperr.HTTPStatus(apperr.KindOf(err)), apperr.PublicMessage(err))
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return "validation"
	case apperr.Conflict:
		return "conflict"
	case apperr.Authentication:
		return "unauthorized"
	default:
		return "error"
	}
}
