package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/pkg/response"
)

// AdminHandler exposes user administration. Role checks happen in the
// application layer, so every route only needs an authenticated actor.
type AdminHandler struct {
	Svc *application.Service
}

func NewAdminHandler(svc *application.Service) *AdminHandler {
	return &AdminHandler{Svc: svc}
}

type suspendRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Svc.ListActiveUsers(c.Request.Context(), currentUser(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	resp := response.Success(c, http.StatusOK, users, "ok", gin.H{"count": len(users)})
	c.JSON(resp.Status, resp)
}

func (h *AdminHandler) SearchUsers(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), currentUser(c), c.Query("q"), size)
	if err != nil {
		response.FromError(c, err)
		return
	}
	resp := response.Success(c, http.StatusOK, hits, "ok", gin.H{"count": len(hits)})
	c.JSON(resp.Status, resp)
}

func (h *AdminHandler) Activate(c *gin.Context) {
	h.respond(c, "user activated")(h.Svc.ActivateUser(c.Request.Context(), currentUser(c), c.Param("id")))
}

func (h *AdminHandler) Suspend(c *gin.Context) {
	var req suspendRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	h.respond(c, "user suspended")(h.Svc.SuspendUser(c.Request.Context(), currentUser(c), c.Param("id"), req.Reason))
}

func (h *AdminHandler) Deactivate(c *gin.Context) {
	h.respond(c, "user deactivated")(h.Svc.DeactivateUser(c.Request.Context(), currentUser(c), c.Param("id")))
}

func (h *AdminHandler) ChangeRole(c *gin.Context) {
	var req changeRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c, "role changed")(h.Svc.ChangeRole(c.Request.Context(), currentUser(c), c.Param("id"), req.Role))
}

func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteUser(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) respond(c *gin.Context, message string) func(application.UserView, error) {
	return func(user application.UserView, err error) {
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, http.StatusOK, user, message)
	}
}
