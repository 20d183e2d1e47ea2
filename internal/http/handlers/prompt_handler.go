// Prompt HTTP handlers.
//
//   - POST   /prompts              (publish)
//   - GET    /prompts              (public listing, ETag support)
//   - GET    /prompts/search       (q, category)
//   - GET    /prompts/{id}
//   - PATCH  /prompts/{id}         (partial update, author only)
//   - DELETE /prompts/{id}         (author only)
//   - GET    /prompts/{id}/content (access controlled)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/prompt-vault/internal/domain"
	"github.com/tbourn/prompt-vault/internal/services"
)

// CreatePrompt godoc
// @ID          createPrompt
// @Summary     Publish a prompt
// @Description The caller must be registered. Category is matched case-insensitively.
// @Tags        Prompts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Caller identity (when JWT auth is off)"  example(alice)
// @Param       Idempotency-Key  header  string  false "Replay protection key"
// @Param       body             body    handlers.CreatePromptRequest  true  "Prompt"
//
// @Success     201  {object}  handlers.Envelope{data=handlers.PromptView}
// @Failure     400  {object}  handlers.Envelope  "Invalid input"
// @Failure     404  {object}  handlers.Envelope  "User not found"
// @Router      /prompts [post]
func (h *Handlers) CreatePrompt(c *gin.Context) {
	var req CreatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.svc.CreatePrompt(c.Request.Context(), userID(c), services.NewPrompt{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Category:    parseCategory(req.Category),
		Tags:        req.Tags,
		Price:       req.Price,
		IsPremium:   req.IsPremium,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, toView(p))
}

// ListPublicPrompts godoc
// @ID          listPublicPrompts
// @Summary     List public prompts
// @Description Public prompts in id order. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Prompts
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.Envelope{data=[]handlers.PromptView}
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Router      /prompts [get]
func (h *Handlers) ListPublicPrompts(c *gin.Context) {
	ps, etag, err := h.svc.GetPublicPromptsTagged(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}
	ok(c, http.StatusOK, toViews(ps))
}

// SearchPrompts godoc
// @ID          searchPrompts
// @Summary     Search public prompts
// @Description Case-insensitive match on title, description or tags, ranked by popularity. An empty query matches everything.
// @Tags        Prompts
// @Produce     json
// @Param       q         query  string  false  "Search text"  example(email)
// @Param       category  query  string  false  "Exact category"  Enums(Marketing,Development,Writing,Business,Education,Creative,Other)
// @Success     200  {object}  handlers.Envelope{data=[]handlers.PromptView}
// @Failure     400  {object}  handlers.Envelope  "Unknown category"
// @Router      /prompts/search [get]
func (h *Handlers) SearchPrompts(c *gin.Context) {
	var cat *domain.Category
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		parsed, ok := domain.ParseCategory(raw)
		if !ok {
			fail(c, http.StatusBadRequest, ErrCodeInvalidInput, fmt.Sprintf("Unknown category %q", raw))
			return
		}
		cat = &parsed
	}
	ps, err := h.svc.SearchPrompts(c.Request.Context(), c.Query("q"), cat)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toViews(ps))
}

// GetPrompt godoc
// @ID          getPrompt
// @Summary     Get prompt metadata
// @Tags        Prompts
// @Produce     json
// @Param       id   path  int  true  "Prompt id"  example(1)
// @Success     200  {object}  handlers.Envelope{data=handlers.PromptView}
// @Failure     404  {object}  handlers.Envelope  "Prompt not found"
// @Router      /prompts/{id} [get]
func (h *Handlers) GetPrompt(c *gin.Context) {
	id, valid := promptID(c)
	if !valid {
		return
	}
	p, err := h.svc.GetPrompt(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toView(p))
}

// UpdatePrompt godoc
// @ID          updatePrompt
// @Summary     Update a prompt
// @Description Replaces only the supplied fields. Only the author may update.
// @Tags        Prompts
// @Accept      json
// @Produce     json
// @Param       id    path  int  true  "Prompt id"  example(1)
// @Param       body  body  handlers.UpdatePromptRequest  true  "Fields to change"
// @Success     200  {object}  handlers.Envelope{data=handlers.PromptView}
// @Failure     400  {object}  handlers.Envelope  "Invalid input"
// @Failure     403  {object}  handlers.Envelope  "Unauthorized"
// @Failure     404  {object}  handlers.Envelope  "Prompt not found"
// @Router      /prompts/{id} [patch]
func (h *Handlers) UpdatePrompt(c *gin.Context) {
	id, valid := promptID(c)
	if !valid {
		return
	}
	var req UpdatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.svc.UpdatePrompt(c.Request.Context(), userID(c), id, req.patch())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toView(p))
}

// DeletePrompt godoc
// @ID          deletePrompt
// @Summary     Delete a prompt
// @Description Only the author may delete. Purchases, likes and ratings of the prompt are kept.
// @Tags        Prompts
// @Produce     json
// @Param       id   path  int  true  "Prompt id"  example(1)
// @Success     200  {object}  handlers.Envelope{data=string}
// @Failure     403  {object}  handlers.Envelope  "Unauthorized"
// @Failure     404  {object}  handlers.Envelope  "Prompt not found"
// @Router      /prompts/{id} [delete]
func (h *Handlers) DeletePrompt(c *gin.Context) {
	id, valid := promptID(c)
	if !valid {
		return
	}
	if err := h.svc.DeletePrompt(c.Request.Context(), userID(c), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "Prompt deleted successfully")
}

// GetPromptContent godoc
// @ID          getPromptContent
// @Summary     Get prompt content
// @Description Allowed for public prompts, the author and buyers.
// @Tags        Prompts
// @Produce     json
// @Param       id   path  int  true  "Prompt id"  example(1)
// @Success     200  {object}  handlers.Envelope{data=string}
// @Failure     403  {object}  handlers.Envelope  "Access denied. Purchase required."
// @Failure     404  {object}  handlers.Envelope  "Prompt not found"
// @Router      /prompts/{id}/content [get]
func (h *Handlers) GetPromptContent(c *gin.Context) {
	id, valid := promptID(c)
	if !valid {
		return
	}
	content, err := h.svc.GetPromptContent(c.Request.Context(), userID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, content)
}
