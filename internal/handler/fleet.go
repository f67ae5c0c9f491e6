package handler

import (
	"context"
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

// ResourceService is the CRUD surface shared by the fleet services.
type ResourceService[Req any, Resp any] interface {
	Resource() string
	List(ctx context.Context, params map[string]string, page int) (pagination.Result[Resp], error)
	Get(ctx context.Context, id string) (*Resp, error)
	Create(ctx context.Context, caller dto.Caller, req Req) (*Resp, error)
	Update(ctx context.Context, caller dto.Caller, id string, req Req) (*Resp, error)
	Delete(ctx context.Context, caller dto.Caller, id string) error
}

// ResourceHandler serves list, search and CRUD routes of one resource.
type ResourceHandler[Req any, Resp any] struct {
	svc   ResourceService[Req, Resp]
	route string
	idOf  func(Resp) string
}

func NewResourceHandler[Req any, Resp any](svc ResourceService[Req, Resp], route string, idOf func(Resp) string) *ResourceHandler[Req, Resp] {
	return &ResourceHandler[Req, Resp]{svc: svc, route: route, idOf: idOf}
}

func (h *ResourceHandler[Req, Resp]) Route() string { return h.route }

func (h *ResourceHandler[Req, Resp]) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "List")

	page, err := pagination.ParsePage(c.Query(constants.QueryParamPage))
	if err != nil {
		respondError(c, ctx, "Invalid page", err)
		return
	}

	res, err := h.svc.List(ctx, listParams(c), page)
	if err != nil {
		respondError(c, ctx, "Failed to list entities", err)
		return
	}

	logger.DebugWithContext(ctx, "Entities listed").
		String("resource", h.svc.Resource()).
		Int("page", res.Page).
		Int64("total", res.Total).
		Int("returned_count", len(res.Items)).
		Log()

	respondList(c, h.route, res)
}

func (h *ResourceHandler[Req, Resp]) Get(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Get")

	resp, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, ctx, "Failed to fetch entity", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ResourceHandler[Req, Resp]) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Create")

	var req Req
	if !bindJSON(c, ctx, &req) {
		return
	}

	resp, err := h.svc.Create(ctx, middleware.CallerFrom(c), req)
	if err != nil {
		respondError(c, ctx, "Failed to create entity", err)
		return
	}

	c.Header(constants.HeaderLocation, dto.ResourceURL(h.route, h.idOf(*resp)))
	c.JSON(http.StatusCreated, resp)
}

func (h *ResourceHandler[Req, Resp]) Update(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Update")

	var req Req
	if !bindJSON(c, ctx, &req) {
		return
	}

	resp, err := h.svc.Update(ctx, middleware.CallerFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, ctx, "Failed to update entity", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ResourceHandler[Req, Resp]) Delete(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Delete")

	if err := h.svc.Delete(ctx, middleware.CallerFrom(c), c.Param("id")); err != nil {
		respondError(c, ctx, "Failed to delete entity", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// VehicleHandler adds the vehicle lookup routes to the generic handler.
type VehicleHandler struct {
	*ResourceHandler[dto.VehicleRequest, dto.VehicleResponse]
	vehicles *service.VehicleService
}

func NewVehicleHandler(vehicles *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{
		ResourceHandler: NewResourceHandler[dto.VehicleRequest, dto.VehicleResponse](
			vehicles, constants.RouteVehicles, func(v dto.VehicleResponse) string { return v.ID }),
		vehicles: vehicles,
	}
}

func (h *VehicleHandler) Dropdown(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Dropdown")

	options, err := h.vehicles.Dropdown(ctx)
	if err != nil {
		respondError(c, ctx, "Failed to build vehicle dropdown", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.RouteVehicles: options})
}

func (h *VehicleHandler) Projects(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Projects")

	projects, err := h.vehicles.Projects(ctx)
	if err != nil {
		respondError(c, ctx, "Failed to list projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

type DriverHandler struct {
	*ResourceHandler[dto.DriverRequest, dto.DriverResponse]
	drivers *service.DriverService
}

func NewDriverHandler(drivers *service.DriverService) *DriverHandler {
	return &DriverHandler{
		ResourceHandler: NewResourceHandler[dto.DriverRequest, dto.DriverResponse](
			drivers, constants.RouteDrivers, func(d dto.DriverResponse) string { return d.ID }),
		drivers: drivers,
	}
}

func (h *DriverHandler) Dropdown(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Dropdown")

	options, err := h.drivers.Dropdown(ctx)
	if err != nil {
		respondError(c, ctx, "Failed to build driver dropdown", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.RouteDrivers: options})
}

func NewTaskHandler(tasks *service.TaskService) *ResourceHandler[dto.AssignmentRequest, dto.TaskResponse] {
	return NewResourceHandler[dto.AssignmentRequest, dto.TaskResponse](
		tasks, constants.RouteTasks, func(t dto.TaskResponse) string { return t.ID })
}

func NewTripHandler(trips *service.TripService) *ResourceHandler[dto.AssignmentRequest, dto.TripResponse] {
	return NewResourceHandler[dto.AssignmentRequest, dto.TripResponse](
		trips, constants.RouteTrips, func(t dto.TripResponse) string { return t.ID })
}
