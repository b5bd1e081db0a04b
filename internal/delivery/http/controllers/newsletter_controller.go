package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "lettermill/internal/delivery/http/helpers"
	"lettermill/internal/domain"
)

// PublishNewsletterRequest is the request body for POST /newsletters.
type PublishNewsletterRequest struct {
	Title   string            `json:"title"`
	Content NewsletterContent `json:"content"`
}

// NewsletterContent holds the two body variants of a newsletter issue.
type NewsletterContent struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Validate implements Validator.
func (p PublishNewsletterRequest) Validate() []string {
	var errs []string
	if p.Title == "" {
		errs = append(errs, "title is required")
	}
	if p.Content.HTML == "" && p.Content.Text == "" {
		errs = append(errs, "content.html or content.text is required")
	}
	return errs
}

// NewsletterController handles newsletter publishing.
type NewsletterController struct {
	service domain.NewsletterService
	logger  *slog.Logger
}

// NewNewsletterController creates a NewsletterController.
func NewNewsletterController(service domain.NewsletterService, logger *slog.Logger) *NewsletterController {
	return &NewsletterController{service: service, logger: logger}
}

// Publish handles POST /newsletters.
//
//	@Summary	Broadcast a newsletter issue to all confirmed subscribers
//	@Accept		json
//	@Param		body	body	PublishNewsletterRequest	true	"Newsletter issue"
//	@Success	200
//	@Failure	400	{object}	helpers.APIResponse
//	@Failure	500	{object}	helpers.APIResponse
//	@Router		/newsletters [post]
func (c *NewsletterController) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishNewsletterRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.service.Publish(r.Context(), req.Title, req.Content.HTML, req.Content.Text); err != nil {
		var dErr *domain.DeliveryError
		if errors.As(err, &dErr) {
			c.logger.Error("newsletter delivery failed", "recipient", dErr.Recipient, "error", domain.ErrorChain(err))
		} else {
			c.logger.Error("failed to publish newsletter", "error", domain.ErrorChain(err))
		}
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "something went wrong")
		return
	}
	w.WriteHeader(http.StatusOK)
}
