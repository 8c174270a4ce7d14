package rest

import (
	"errors"
	"net/http"

	perrors "github.com/abgdnv/toymarket/internal/errors"
	"github.com/abgdnv/toymarket/internal/service"
	"github.com/abgdnv/toymarket/pkg/web"
	"github.com/go-chi/chi/v5"
)

// RootMessage is the body of the root health route.
const RootMessage = "Toy marketplace server is running successfully"

// registerLegacyRoutes serves the unversioned routes existing clients call.
// Lookups answer with arrays and writes with acknowledgments, never 404.
func (h *Handler) registerLegacyRoutes(r *chi.Mux) {
	r.Get("/", h.Root)
	r.Get("/allToys", h.AllToys)
	r.Get("/categoryFiltered", h.CategoryFiltered)
	r.Get("/getToyBySearch", h.SearchByName)
	r.Get("/singleToy/{id}", h.SingleToy)
	r.Get("/myToys", h.MyToys)
	r.Post("/addToys", h.AddToy)
	r.Put("/updateToy/{id}", h.UpdateToy)
	r.Delete("/deleteToy/{id}", h.DeleteToy)
}

func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	web.RespondText(w, http.StatusOK, RootMessage)
}

// AllToys lists at most limit listings, 20 by default.
func (h *Handler) AllToys(w http.ResponseWriter, r *http.Request) {
	limit, ok := web.ParseOptionalGte(r, w, h.logger, "limit", 0, service.DefaultLimit)
	if !ok {
		return
	}
	list, err := h.service.FindAll(r.Context(), limit)
	h.respondList(w, r, list, err)
}

// CategoryFiltered lists the listings of a subCategory.
func (h *Handler) CategoryFiltered(w http.ResponseWriter, r *http.Request) {
	category, ok := web.RequireQuery(r, w, h.logger, "category")
	if !ok {
		return
	}
	list, err := h.service.FindByCategory(r.Context(), category)
	h.respondList(w, r, list, err)
}

// SearchByName lists the listings whose productName contains name, ignoring case.
func (h *Handler) SearchByName(w http.ResponseWriter, r *http.Request) {
	name, ok := web.RequireQuery(r, w, h.logger, "name")
	if !ok {
		return
	}
	list, err := h.service.SearchByName(r.Context(), name)
	h.respondList(w, r, list, err)
}

// MyToys lists the listings of the seller given by user.
func (h *Handler) MyToys(w http.ResponseWriter, r *http.Request) {
	user, ok := web.RequireQuery(r, w, h.logger, "user")
	if !ok {
		return
	}
	list, err := h.service.FindBySeller(r.Context(), user)
	h.respondList(w, r, list, err)
}

// SingleToy answers with an array holding the listing, or an empty array.
func (h *Handler) SingleToy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	found, err := h.service.FindByID(r.Context(), id)
	if errors.Is(err, perrors.ErrToyNotFound) {
		web.RespondJSON(w, h.logger, http.StatusOK, []service.ToyDto{})
		return
	}
	if err != nil {
		h.respondServiceError(w, r, err, id, "retrieve toy")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, []service.ToyDto{found})
}

// AddToy creates a listing and answers with its insert acknowledgment.
func (h *Handler) AddToy(w http.ResponseWriter, r *http.Request) {
	created, ok := h.create(w, r)
	if !ok {
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, service.InsertAck{Acknowledged: true, InsertedID: created.ID()})
}

// UpdateToy answers with the update acknowledgment, also when nothing matched.
func (h *Handler) UpdateToy(w http.ResponseWriter, r *http.Request) {
	ack, ok := h.update(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, ack)
}

// DeleteToy answers with the delete acknowledgment, also when nothing was removed.
func (h *Handler) DeleteToy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ack, err := h.service.DeleteByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, id, "delete toy")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, ack)
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, list []service.ToyDto, err error) {
	if err != nil {
		h.respondServiceError(w, r, err, "", "fetch toys")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved toy list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}
