package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "lettermill/internal/delivery/http/helpers"
	"lettermill/internal/domain"
)

// SubscriptionController handles the subscription form and the confirmation link.
type SubscriptionController struct {
	service domain.SubscriptionService
	logger  *slog.Logger
}

// NewSubscriptionController creates a SubscriptionController.
func NewSubscriptionController(service domain.SubscriptionService, logger *slog.Logger) *SubscriptionController {
	return &SubscriptionController{service: service, logger: logger}
}

// Subscribe handles POST /subscriptions.
//
//	@Summary	Subscribe to the newsletter
//	@Accept		x-www-form-urlencoded
//	@Param		name	formData	string	true	"Subscriber name"
//	@Param		email	formData	string	true	"Subscriber email"
//	@Success	200
//	@Failure	400	{object}	helpers.APIResponse
//	@Failure	500	{object}	helpers.APIResponse
//	@Router		/subscriptions [post]
func (c *SubscriptionController) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "malformed form body")
		return
	}
	err := c.service.Subscribe(r.Context(), r.PostForm.Get("name"), r.PostForm.Get("email"))
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, vErr.Error())
			return
		}
		c.logger.Error("failed to add subscriber", "error", domain.ErrorChain(err))
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "something went wrong")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Confirm handles GET /subscriptions/confirm.
//
//	@Summary	Confirm a pending subscription
//	@Param		subscription_token	query	string	true	"Confirmation token"
//	@Success	200
//	@Failure	400	{object}	helpers.APIResponse
//	@Failure	500	{object}	helpers.APIResponse
//	@Router		/subscriptions/confirm [get]
func (c *SubscriptionController) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")
	err := c.service.Confirm(r.Context(), token)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, domain.ErrTokenNotFound):
		// Malformed, expired, and never-issued tokens all read the same.
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "unknown subscription token")
	default:
		c.logger.Error("failed to confirm subscriber", "error", domain.ErrorChain(err))
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "something went wrong")
	}
}
