package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/vaughan-dsouza/lmsauth/internal/auth"
	"github.com/vaughan-dsouza/lmsauth/internal/logging"
	"github.com/vaughan-dsouza/lmsauth/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

type pageData struct {
	Title string
	User  string
}

type PageHandler struct {
	tmpl *template.Template
	log  logging.Logger
}

func NewPageHandler(log logging.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{tmpl: tmpl, log: log}, nil
}

func (h *PageHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "welcome.html", pageData{Title: "Welcome"})
}

func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", pageData{Title: "Register"})
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", pageData{Title: "Login"})
}

// Dashboard renders for anonymous and signed-in callers alike.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Dashboard"}
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		data.User = id.Email
	}
	h.render(w, r, "dashboard.html", data)
}

// render buffers the page so a template failure still yields a clean 500.
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error(r.Context(), "render page", "page", name, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "Server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
