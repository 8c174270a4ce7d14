// Package rest provides HTTP handlers for toy listing operations.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	perrors "github.com/abgdnv/toymarket/internal/errors"
	"github.com/abgdnv/toymarket/internal/service"
	"github.com/abgdnv/toymarket/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.ToyService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler for the provided service.
func NewHandler(service service.ToyService, logger *slog.Logger) *Handler {
	validate := validator.New()
	// report field errors under their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		service:  service,
		validate: validate,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the toy service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	h.registerLegacyRoutes(r)

	r.Route("/api/v1/toys", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
		})
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadinessCheck)
}

// FindAll lists toy listings. At most one of category, seller and name may narrow the result.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := 0
	for _, key := range []string{"category", "seller", "name"} {
		if strings.TrimSpace(query.Get(key)) != "" {
			filters++
		}
	}
	if filters > 1 {
		web.RespondError(w, h.logger, http.StatusBadRequest, "Only one of category, seller and name may be given")
		return
	}

	var (
		list []service.ToyDto
		err  error
	)
	switch {
	case strings.TrimSpace(query.Get("category")) != "":
		category, ok := web.RequireQuery(r, w, h.logger, "category")
		if !ok {
			return
		}
		list, err = h.service.FindByCategory(r.Context(), category)
	case strings.TrimSpace(query.Get("seller")) != "":
		seller, ok := web.RequireQuery(r, w, h.logger, "seller")
		if !ok {
			return
		}
		list, err = h.service.FindBySeller(r.Context(), seller)
	case strings.TrimSpace(query.Get("name")) != "":
		name, ok := web.RequireQuery(r, w, h.logger, "name")
		if !ok {
			return
		}
		list, err = h.service.SearchByName(r.Context(), name)
	default:
		limit, ok := web.ParseOptionalGte(r, w, h.logger, "limit", 0, service.DefaultLimit)
		if !ok {
			return
		}
		list, err = h.service.FindAll(r.Context(), limit)
	}
	h.respondList(w, r, list, err)
}

// FindByID retrieves a toy listing by its id.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, id, "retrieve toy")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create handles the creation of a new toy listing.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	created, ok := h.create(w, r)
	if !ok {
		return
	}
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// Update replaces price, availableQuantity and detailsDescription of a toy listing.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ack, ok := h.update(w, r, id)
	if !ok {
		return
	}
	if ack.MatchedCount == 0 {
		h.respondServiceError(w, r, perrors.ErrToyNotFound, id, "update toy")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, ack)
}

// DeleteByID deletes a toy listing by its id.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ack, err := h.service.DeleteByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, id, "delete toy")
		return
	}
	if ack.DeletedCount == 0 {
		h.respondServiceError(w, r, perrors.ErrToyNotFound, id, "delete toy")
		return
	}
	h.logger.InfoContext(r.Context(), "Toy deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple liveness endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ReadinessCheck answers 503 while the store is unreachable.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "Store is not reachable", "error", err)
		web.RespondJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// create decodes, validates and stores a new listing. Returns false when a response has been written.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) (service.ToyDto, bool) {
	var toyCreateDto service.ToyCreateDto
	if !web.DecodeJSON(w, r, h.logger, &toyCreateDto) {
		return nil, false
	}
	if err := h.validate.Struct(toyCreateDto); err != nil {
		web.RespondValidationError(w, r, h.logger, err)
		return nil, false
	}
	created, err := h.service.Create(r.Context(), toyCreateDto)
	if err != nil {
		h.respondServiceError(w, r, err, "", "create toy")
		return nil, false
	}
	h.logger.InfoContext(r.Context(), "Toy created successfully", "ID", created.ID(), "Name", toyCreateDto.ProductName)
	return created, true
}

// update decodes, validates and applies an update. Returns false when a response has been written.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, id string) (*service.UpdateAck, bool) {
	if _, err := service.ParseID(id); err != nil {
		h.respondServiceError(w, r, err, id, "update toy")
		return nil, false
	}
	var toyUpdateDto service.ToyUpdateDto
	if !web.DecodeJSON(w, r, h.logger, &toyUpdateDto) {
		return nil, false
	}
	if err := h.validate.Struct(toyUpdateDto); err != nil {
		web.RespondValidationError(w, r, h.logger, err)
		return nil, false
	}
	ack, err := h.service.UpdateByID(r.Context(), id, toyUpdateDto)
	if err != nil {
		h.respondServiceError(w, r, err, id, "update toy")
		return nil, false
	}
	h.logger.InfoContext(r.Context(), "Toy update applied", "ID", id, "matched", ack.MatchedCount, "modified", ack.ModifiedCount)
	return ack, true
}

// respondServiceError maps service errors to HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, id, action string) {
	switch {
	case errors.Is(err, perrors.ErrInvalidIdentifier):
		h.logger.WarnContext(r.Context(), "Invalid toy ID", "ID", id)
		web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Invalid ID: %s", id))
	case errors.Is(err, perrors.ErrToyNotFound):
		h.logger.WarnContext(r.Context(), "Toy not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Toy with ID %s not found", id))
	case errors.Is(err, perrors.ErrStoreUnavailable):
		h.logger.ErrorContext(r.Context(), "Store unavailable", "action", action, "error", err)
		web.RespondError(w, h.logger, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		h.logger.ErrorContext(r.Context(), "Failed to "+action, "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to "+action)
	}
}
