package handlers

import "github.com/vaughan-dsouza/lmsauth/internal/logging"

type Handler struct {
	Auth   *AuthHandler
	Pages  *PageHandler
	Health *HealthHandler
}

func NewHandler(svc AuthService, obs AuthObserver, db Pinger, log logging.Logger) (*Handler, error) {
	pages, err := NewPageHandler(log)
	if err != nil {
		return nil, err
	}
	return &Handler{
		Auth:   NewAuthHandler(svc, obs, log),
		Pages:  pages,
		Health: NewHealthHandler(db, log),
	}, nil
}
