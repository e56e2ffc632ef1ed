package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/models"
	"github.com/venapictures/vena/internal/store"
)

// ListCollection handles GET /api/collections/{name}. The ETag header
// carries the content checksum.
//
//	@Summary		Snapshot of one collection
//	@Tags			collections
//	@Produce		json
//	@Param			name	path		string	true	"Collection name"
//	@Success		200		{object}	CollectionResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{name} [get]
func (h *Handler) ListCollection(w http.ResponseWriter, r *http.Request) {
	h.writeCollection(w, r, chi.URLParam(r, "name"))
}

// ReplaceCollection handles PUT /api/collections/{name}. The body is the
// full new sequence. If-Match, when present, must equal the current ETag.
//
//	@Summary		Replace a collection with optimistic concurrency
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			name		path	string	true	"Collection name"
//	@Param			If-Match	header	string	false	"SHA-256 checksum for optimistic concurrency"
//	@Success		200		{object}	CollectionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{name} [put]
func (h *Handler) ReplaceCollection(w http.ResponseWriter, r *http.Request) {
	h.replace(w, r, chi.URLParam(r, "name"))
}

// GetRecord handles GET /api/collections/{name}/{id}.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	v, err := h.c.Collections().Get(chi.URLParam(r, "name"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Profile handles GET /api/profile.
func (h *Handler) Profile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.c.Store.Profile())
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if _, err := h.c.Collections().ReplaceJSONIfMatch(store.NameProfile, body, ifMatch(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.c.Store.Profile())
}

// AddLead handles POST /api/leads.
//
//	@Summary		Add a lead; leads stay sorted newest first
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Lead	true	"Lead"
//	@Success		201		{object}	models.Lead
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/leads [post]
func (h *Handler) AddLead(w http.ResponseWriter, r *http.Request) {
	var lead models.Lead
	if !decodeBody(w, r, &lead) {
		return
	}
	if err := validation.ValidateStruct(&lead,
		validation.Field(&lead.Name, validation.Required),
	); err != nil {
		writeError(w, r, fmt.Errorf("api: lead: %v: %w", err, apperr.ErrValidation))
		return
	}
	writeJSON(w, http.StatusCreated, h.c.Store.AddLead(lead))
}

// SettlePayments handles POST /api/settlements.
//
//	@Summary		Pay out team obligations in one step
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		store.Settlement	true	"Settlement"
//	@Success		201		{object}	store.SettlementResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settlements [post]
func (h *Handler) SettlePayments(w http.ResponseWriter, r *http.Request) {
	var req store.Settlement
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.c.SettlePayments(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request, name string) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if _, err := h.c.Collections().ReplaceJSONIfMatch(name, body, ifMatch(r)); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeCollection(w, r, name)
}

func (h *Handler) writeCollection(w http.ResponseWriter, r *http.Request, name string) {
	reg := h.c.Collections()
	items, err := reg.List(name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := reg.Checksum(name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", `"`+sum+`"`)
	writeJSON(w, http.StatusOK, CollectionResponse{Name: name, Items: items, Checksum: sum})
}

// ifMatch strips the quotes of a standard ETag.
func ifMatch(r *http.Request) string {
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}
