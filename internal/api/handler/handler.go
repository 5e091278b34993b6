package handler

import (
	"titulacion/config"
	"titulacion/internal/service"
)

// Handler aggregate of every HTTP handler
type Handler struct {
	Auth         *AuthHandler
	Registration *RegistrationHandler
	Graduate     *GraduateHandler
	Review       *ReviewHandler
	Import       *ImportHandler
	Catalog      *CatalogHandler
	Health       *HealthHandler
}

// NewHandler creates the Handler aggregate
func NewHandler(cfg *config.Config, svc *service.Service, pinger Pinger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &cfg.Auth),
		Registration: NewRegistrationHandler(svc.Registration, &cfg.Auth),
		Graduate:     NewGraduateHandler(svc.Graduate, svc.Generator),
		Review:       NewReviewHandler(svc.Review, svc.Export),
		Import:       NewImportHandler(svc.Import),
		Catalog:      NewCatalogHandler(svc.Catalog),
		Health:       NewHealthHandler(pinger),
	}
}
