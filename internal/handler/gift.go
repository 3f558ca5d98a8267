package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AdrianoMiguel/CasaNovaGabs/internal/apperror"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/auth"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/model"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/repository"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/service"
)

// GiftHandler exposes the gift catalog over HTTP. Every route sits behind
// RequireAuth; admin-only rules live in the service, which receives the
// full caller record and decides from its IsAdmin flag.
type GiftHandler struct {
	gifts  *service.GiftService
	users  repository.UserRepository
	logger *slog.Logger
}

func NewGiftHandler(gifts *service.GiftService, users repository.UserRepository, logger *slog.Logger) *GiftHandler {
	return &GiftHandler{
		gifts:  gifts,
		users:  users,
		logger: logger,
	}
}

// giftPayload is the request body for create and update.
type giftPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// caller resolves the authenticated user behind the request. RequireAuth
// guarantees a userID in the context; the lookup can still fail if the
// account was deleted after the token was issued.
func (h *GiftHandler) caller(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return nil, false
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Warn("request from unknown user",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, apperror.Unauthenticated("authentication required"))
		return nil, false
	}

	return user, true
}

// HandleList returns the catalog: every gift for admins, only the still
// available ones for guests.
//
// HTTP: GET /gifts
func (h *GiftHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	gifts, err := h.gifts.ListFor(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"gifts": gifts})
}

// HandleChoose claims a gift for the caller.
//
// HTTP: POST /gifts/{id}/choose
//
// Losing the race and choosing a nonexistent gift both come back as 400
// with the same message; callers cannot probe which IDs exist.
func (h *GiftHandler) HandleChoose(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	gift, err := h.gifts.Claim(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "gift chosen successfully",
		"gift": map[string]string{
			"id":   gift.ID,
			"name": gift.Name,
		},
	})
}

// HandleCreate adds a gift to the catalog. Admin only.
//
// HTTP: POST /gifts
func (h *GiftHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var payload giftPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	gift, err := h.gifts.Create(r.Context(), user, payload.Name, payload.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"gift": gift})
}

// HandleUpdate edits an unclaimed gift's name or description. Admin only.
//
// HTTP: PUT /gifts/{id}
func (h *GiftHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var payload giftPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	gift, err := h.gifts.Update(r.Context(), user, chi.URLParam(r, "id"), payload.Name, payload.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"gift": gift})
}

// HandleDelete removes an unclaimed gift from the catalog. Admin only.
//
// HTTP: DELETE /gifts/{id}
func (h *GiftHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.gifts.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "gift removed"})
}

// HandleReport returns the full catalog with claimant details plus
// aggregate counts. Admin only.
//
// HTTP: GET /gifts/admin/report
func (h *GiftHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	gifts, stats, err := h.gifts.Report(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"gifts": gifts,
		"stats": stats,
	})
}
