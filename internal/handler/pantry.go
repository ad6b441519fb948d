package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/category"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/sharing"
	"github.com/dukerupert/larder/internal/store"
)

type PantryHandler struct {
	store    *store.PantryStore
	sharing  *sharing.Service
	notifier sharing.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewPantryHandler(ps *store.PantryStore, svc *sharing.Service, notifier sharing.Notifier, logger *slog.Logger) *PantryHandler {
	return &PantryHandler{store: ps, sharing: svc, notifier: notifier, logger: logger, now: time.Now}
}

type pantryItemRequest struct {
	Name       string  `json:"name" validate:"required,max=100"`
	Quantity   int     `json:"quantity" validate:"gt=0"`
	Unit       string  `json:"unit"`
	Category   string  `json:"category"`
	ExpiryDate *string `json:"expiry_date"`
}

type pantryItemResponse struct {
	model.PantryItem
	ExpiringSoon bool `json:"expiring_soon"`
}

func (h *PantryHandler) respond(item model.PantryItem) pantryItemResponse {
	return pantryItemResponse{PantryItem: item, ExpiringSoon: item.ExpiringSoon(h.now())}
}

// input normalizes a request into store fields, writing a 400 on failure.
func (h *PantryHandler) input(w http.ResponseWriter, req pantryItemRequest) (store.PantryInput, bool) {
	name := model.TitleCase(req.Name)
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return store.PantryInput{}, false
	}

	unit, ok := model.ParseUnit(req.Unit)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "unknown unit")
		return store.PantryInput{}, false
	}

	cat := category.Suggest(name)
	if strings.TrimSpace(req.Category) != "" {
		cat, ok = model.ParseCategory(req.Category)
		if !ok {
			writeMessage(w, http.StatusBadRequest, "unknown category")
			return store.PantryInput{}, false
		}
	}

	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "expiry_date must be a date like 2006-01-02")
		return store.PantryInput{}, false
	}

	return store.PantryInput{
		Name:       name,
		Quantity:   req.Quantity,
		Unit:       unit,
		Category:   cat,
		ExpiryDate: expiry,
	}, true
}

func (h *PantryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var filter model.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		filter, ok = model.ParseCategory(raw)
		if !ok {
			writeMessage(w, http.StatusBadRequest, "unknown category")
			return
		}
	}

	items, err := h.store.List(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("failed to list pantry items", "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}

	out := make([]pantryItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, h.respond(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PantryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req pantryItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := h.input(w, req)
	if !ok {
		return
	}
	if in.ExpiryDate == nil {
		expiry := model.DefaultExpiry(h.now())
		in.ExpiryDate = &expiry
	}

	item, err := h.store.Create(r.Context(), userID, in)
	if err != nil {
		h.logger.Error("failed to create pantry item", "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}

	h.notifier.PantryChanged(userID, "created", item.ID)
	writeJSON(w, http.StatusCreated, h.respond(*item))
}

func (h *PantryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	item, err := h.store.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.logger.Error("failed to get pantry item", "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}
	if item == nil {
		writeMessage(w, http.StatusNotFound, "This item no longer exists.")
		return
	}
	writeJSON(w, http.StatusOK, h.respond(*item))
}

func (h *PantryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req pantryItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, ok := h.input(w, req)
	if !ok {
		return
	}

	item, err := h.store.Update(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		h.logger.Error("failed to update pantry item", "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}
	if item == nil {
		writeMessage(w, http.StatusNotFound, "This item no longer exists.")
		return
	}

	h.notifier.PantryChanged(userID, "updated", item.ID)
	writeJSON(w, http.StatusOK, h.respond(*item))
}

func (h *PantryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	deleted, err := h.store.Delete(r.Context(), userID, id)
	if err != nil {
		h.logger.Error("failed to delete pantry item", "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}
	if !deleted {
		writeMessage(w, http.StatusNotFound, "This item no longer exists.")
		return
	}

	h.notifier.PantryChanged(userID, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PantryHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req struct {
		IDs []string `json:"ids" validate:"dive,required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.sharing.RemoveItems(r.Context(), userID, req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *PantryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	n, err := h.sharing.ClearPantry(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

type offerRequest struct {
	Quantity       int     `json:"quantity"`
	Description    string  `json:"description" validate:"max=500"`
	Location       string  `json:"location" validate:"max=200"`
	AvailableUntil *string `json:"available_until"`
}

func (h *PantryHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req offerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	until, err := parseDate(req.AvailableUntil)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "available_until must be a date or timestamp")
		return
	}

	c, err := h.sharing.Share(r.Context(), userID, r.PathValue("id"), sharing.ShareRequest{
		Quantity:       req.Quantity,
		Description:    strings.TrimSpace(req.Description),
		Location:       strings.TrimSpace(req.Location),
		AvailableUntil: until,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	now := h.now()
	writeJSON(w, http.StatusCreated, contributionResponse{
		Contribution: *c,
		ExpiringSoon: c.ExpiringSoon(now),
		Expired:      c.Expired(now),
	})
}

func (h *PantryHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"category": string(category.Suggest(name))})
}
