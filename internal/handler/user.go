package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	"github.com/Payphone-Digital/fleet-registry/internal/middleware"
	"github.com/Payphone-Digital/fleet-registry/internal/pagination"
	"github.com/Payphone-Digital/fleet-registry/internal/service"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{userService: service}
}

func (h *UserHandler) GetAll(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "GetAll")

	page, err := pagination.ParsePage(c.Query(constants.QueryParamPage))
	if err != nil {
		respondError(c, ctx, "Invalid page", err)
		return
	}

	res, err := h.userService.List(ctx, middleware.CallerFrom(c), listParams(c), page)
	if err != nil {
		respondError(c, ctx, "Failed to fetch users", err)
		return
	}

	logger.InfoWithContext(ctx, "Users fetched successfully").
		Int("page", res.Page).
		Int64("total", res.Total).
		Int("returned_count", len(res.Items)).
		Log()

	respondList(c, constants.RouteUsers, res)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "GetByID")

	user, err := h.userService.Get(ctx, middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, ctx, "Failed to fetch user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser registers a user and mails the confirmation link
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "CreateUser")

	var req dto.CreateUserRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	logger.InfoWithContext(ctx, "Create user request").
		String("email", req.Email).
		String("username", req.Username).
		Log()

	user, err := h.userService.Create(ctx, middleware.CallerFrom(c), req)
	if err != nil {
		respondError(c, ctx, "Failed to create user", err)
		return
	}

	c.Header(constants.HeaderLocation, user.URL)
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateUser")

	var req dto.UpdateUserRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	user, err := h.userService.Update(ctx, middleware.CallerFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, ctx, "Failed to update user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "DeleteUser")

	id := c.Param("id")
	if err := h.userService.Delete(ctx, middleware.CallerFrom(c), id); err != nil {
		respondError(c, ctx, "Failed to delete user", err)
		return
	}

	logger.InfoWithContext(ctx, "User deleted").
		String("user_id", id).
		Log()
	c.Status(http.StatusNoContent)
}
