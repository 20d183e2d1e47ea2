// User HTTP handlers.
//
//   - POST /users                 (register the caller)
//   - GET  /users/{id}
//   - GET  /users/{id}/prompts
//   - GET  /users/{id}/purchases
//   - GET  /users/{id}/likes
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateUser godoc
// @ID          createUser
// @Summary     Register the caller
// @Description Creates the user record of the calling identity. Username and email are optional.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Caller identity (when JWT auth is off)"  example(alice)
// @Param       body       body    handlers.CreateUserRequest  false  "Profile"
//
// @Success     201  {object}  handlers.Envelope{data=domain.User}
// @Failure     400  {object}  handlers.Envelope  "Invalid username"
// @Failure     409  {object}  handlers.Envelope  "User already exists"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), userID(c), req.Username, req.Email)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Param       id   path  string  true  "User identity"  example(alice)
// @Success     200  {object}  handlers.Envelope{data=domain.User}
// @Failure     404  {object}  handlers.Envelope  "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// GetUserPrompts godoc
// @ID          getUserPrompts
// @Summary     List prompts authored by a user
// @Description Includes private prompts. Ordered by id.
// @Tags        Users
// @Produce     json
// @Param       id   path  string  true  "User identity"  example(alice)
// @Success     200  {object}  handlers.Envelope{data=[]handlers.PromptView}
// @Router      /users/{id}/prompts [get]
func (h *Handlers) GetUserPrompts(c *gin.Context) {
	ps, err := h.svc.GetUserPrompts(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toViews(ps))
}

// GetUserPurchases godoc
// @ID          getUserPurchases
// @Summary     List prompt ids purchased by a user
// @Description Purchase order. Ids of deleted prompts are kept.
// @Tags        Users
// @Produce     json
// @Param       id   path  string  true  "User identity"  example(alice)
// @Success     200  {object}  handlers.Envelope{data=[]int}
// @Router      /users/{id}/purchases [get]
func (h *Handlers) GetUserPurchases(c *gin.Context) {
	ids, err := h.svc.GetUserPurchases(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ids)
}

// GetUserLikes godoc
// @ID          getUserLikes
// @Summary     List prompt ids liked by a user
// @Tags        Users
// @Produce     json
// @Param       id   path  string  true  "User identity"  example(alice)
// @Success     200  {object}  handlers.Envelope{data=[]int}
// @Router      /users/{id}/likes [get]
func (h *Handlers) GetUserLikes(c *gin.Context) {
	ids, err := h.svc.GetUserLikes(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ids)
}
