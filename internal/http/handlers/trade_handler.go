// Purchase, like and rating HTTP handlers.
//
//   - POST   /prompts/{id}/purchase
//   - POST   /prompts/{id}/like
//   - DELETE /prompts/{id}/like
//   - POST   /prompts/{id}/rating
//   - GET    /prompts/{id}/rating
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// mutate runs a prompt-scoped operation and writes the confirmation message.
func (h *Handlers) mutate(c *gin.Context, fn func(ctx context.Context, caller string, id uint64) error, msg string) {
	id, valid := promptID(c)
	if !valid {
		return
	}
	if err := fn(c.Request.Context(), userID(c), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, msg)
}

// PurchasePrompt godoc
// @ID          purchasePrompt
// @Summary     Purchase a prompt
// @Description Records the purchase and credits the author. Send an Idempotency-Key to retry safely.
// @Tags        Trades
// @Produce     json
// @Param       id               path    int     true   "Prompt id"  example(1)
// @Param       Idempotency-Key  header  string  false  "Replay protection key"
// @Success     200  {object}  handlers.Envelope{data=string}
// @Failure     403  {object}  handlers.Envelope  "Cannot purchase your own prompt"
// @Failure     404  {object}  handlers.Envelope  "Prompt not found"
// @Failure     409  {object}  handlers.Envelope  "Prompt already purchased"
// @Router      /prompts/{id}/purchase [post]
func (h *Handlers) PurchasePrompt(c *gin.Context) {
	h.mutate(c, h.svc.PurchasePrompt, "Purchase successful")
}

// LikePrompt godoc
// @ID          likePrompt
// @Summary     Like a prompt
// @Tags        Trades
// @Produce     json
// @Param       id   path  int  true  "Prompt id"  example(1)
// @Success     200  {object}  handlers.Envelope{data=string}
// @Failure     404  {object}  handlers.Envelope  "Prompt not found"
// @Failure     409  {object}  handlers.Envelope  "Prompt already liked"
// @Router      /prompts/{id}/like [post]
func (h *Handlers) LikePrompt(c *gin.Context) {
	h.mutate(c, h.svc.LikePrompt, "Prompt liked successfully")
}

// UnlikePrompt godoc
// @ID          unlikePrompt
// @Summary     Remove a like
// @Tags        Trades
// @Produce     json
// @Param       id   path  int  true  "Prompt id"  example(1)
// @Success     200  {object}  handlers.Envelope{data=string}
// @Failure     404  {object}  handlers.Envelope  "Prompt not found"
// @Failure     409  {object}  handlers.Envelope  "Prompt was not liked"
// @Router      /prompts/{id}/like [delete]
func (h *Handlers) UnlikePrompt(c *gin.Context) {
	h.mutate(c, h.svc.UnlikePrompt, "Prompt unliked successfully")
}

// RatePrompt godoc
// @ID          ratePrompt
// @Summary     Rate a prompt
// @Description Rating is 1 to 5. Re-rating replaces the previous value.
// @Tags        Trades
// @Accept      json
// @Produce     json
// @Param       id    path  int  true  "Prompt id"  example(1)
// @Param       body  body  handlers.RateRequest  true  "Rating"
// @Success     200  {object}  handlers.Envelope{data=string}
// @Failure     400  {object}  handlers.Envelope  "Rating must be between 1 and 5"
// @Failure     403  {object}  handlers.Envelope  "Cannot rate your own prompt"
// @Failure     404  {object}  handlers.Envelope  "Prompt not found"
// @Router      /prompts/{id}/rating [post]
func (h *Handlers) RatePrompt(c *gin.Context) {
	id, valid := promptID(c)
	if !valid {
		return
	}
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Rating == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "rating required")
		return
	}
	if err := h.svc.RatePrompt(c.Request.Context(), userID(c), id, *req.Rating); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Prompt rated successfully")
}

// GetUserRating godoc
// @ID          getUserRating
// @Summary     Get the caller's rating of a prompt
// @Tags        Trades
// @Produce     json
// @Param       id   path  int  true  "Prompt id"  example(1)
// @Success     200  {object}  handlers.Envelope{data=int}
// @Failure     404  {object}  handlers.Envelope  "Rating not found"
// @Router      /prompts/{id}/rating [get]
func (h *Handlers) GetUserRating(c *gin.Context) {
	id, valid := promptID(c)
	if !valid {
		return
	}
	v, err := h.svc.GetUserRating(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, int(v))
}
