package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/sharing"
	"github.com/dukerupert/larder/internal/store"
)

type ContributionHandler struct {
	store   *store.ContributionStore
	sharing *sharing.Service
	logger  *slog.Logger
	now     func() time.Time
}

func NewContributionHandler(cs *store.ContributionStore, svc *sharing.Service, logger *slog.Logger) *ContributionHandler {
	return &ContributionHandler{store: cs, sharing: svc, logger: logger, now: time.Now}
}

type contributionResponse struct {
	model.Contribution
	ExpiringSoon bool `json:"expiring_soon"`
	Expired      bool `json:"expired"`
}

func (h *ContributionHandler) respond(c model.Contribution) contributionResponse {
	now := h.now()
	return contributionResponse{
		Contribution: c,
		ExpiringSoon: c.ExpiringSoon(now),
		Expired:      c.Expired(now),
	}
}

func (h *ContributionHandler) writeList(w http.ResponseWriter, list []model.Contribution) {
	out := make([]contributionResponse, 0, len(list))
	for _, c := range list {
		out = append(out, h.respond(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// Community lists offers other users can still claim.
func (h *ContributionHandler) Community(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "community", func(ctx context.Context, userID string) ([]model.Contribution, error) {
		return h.store.ListAvailable(ctx, userID, h.now())
	})
}

// Mine lists the caller's own offers in every status.
func (h *ContributionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "mine", h.store.ListByContributor)
}

// Claimed lists offers the caller has claimed.
func (h *ContributionHandler) Claimed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "claimed", h.store.ListClaimedBy)
}

func (h *ContributionHandler) list(w http.ResponseWriter, r *http.Request, view string, fetch func(context.Context, string) ([]model.Contribution, error)) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := fetch(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list contributions", "view", view, "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}
	h.writeList(w, list)
}

func (h *ContributionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}

	c, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("failed to get contribution", "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}
	if c == nil {
		writeMessage(w, http.StatusNotFound, "This item no longer exists.")
		return
	}
	writeJSON(w, http.StatusOK, h.respond(*c))
}

func (h *ContributionHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	c, err := h.sharing.Edit(r.Context(), userID, r.PathValue("id"), sharing.EditRequest{
		Quantity:       req.Quantity,
		Description:    strings.TrimSpace(req.Description),
		Location:       strings.TrimSpace(req.Location),
		AvailableUntil: until,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.respond(*c))
}

func (h *ContributionHandler) Claim(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sharing.Claim)
}

func (h *ContributionHandler) Collect(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sharing.Collect)
}

func (h *ContributionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.sharing.StopSharing)
}

func (h *ContributionHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string) (*model.Contribution, error)) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	c, err := fn(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.respond(*c))
}
