package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"apptracker/internal/metrics"
	"apptracker/internal/model"
	"apptracker/internal/service"
)

// ApplicationHandler handles the owner-scoped application endpoints.
type ApplicationHandler struct {
	appService service.ApplicationService
	metrics    *metrics.Metrics
}

// NewApplicationHandler creates a new application handler. m may be nil.
func NewApplicationHandler(appService service.ApplicationService, m *metrics.Metrics) *ApplicationHandler {
	return &ApplicationHandler{appService: appService, metrics: m}
}

// CreateApplicationRequest represents a create request. Omitted optional
// fields take their defaults.
type CreateApplicationRequest struct {
	Company  string  `json:"company" validate:"max=255" example:"Stripe"`
	Role     string  `json:"role" validate:"max=255" example:"SWE Intern"`
	Status   *string `json:"status,omitempty" example:"applied"`
	Location string  `json:"location" validate:"max=255" example:"Remote"`
	Referral bool    `json:"referral"`
	Source   string  `json:"source" validate:"max=255" example:"LinkedIn"`
	Notes    string  `json:"notes" validate:"max=10000"`
}

// UpdateApplicationRequest is a merge-patch. Absent or null fields keep their
// stored value.
type UpdateApplicationRequest struct {
	Company  *string `json:"company,omitempty" validate:"omitempty,max=255"`
	Role     *string `json:"role,omitempty" validate:"omitempty,max=255"`
	Status   *string `json:"status,omitempty"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=255"`
	Referral *bool   `json:"referral,omitempty"`
	Source   *string `json:"source,omitempty" validate:"omitempty,max=255"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=10000"`
}

// ApplicationResponse wraps a single application.
type ApplicationResponse struct {
	Application *model.Application `json:"application"`
}

// ApplicationListResponse wraps the owner's applications.
type ApplicationListResponse struct {
	Applications []model.Application `json:"applications"`
}

func (r CreateApplicationRequest) toModel() model.NewApplication {
	in := model.NewApplication{
		Company:  r.Company,
		Role:     r.Role,
		Location: r.Location,
		Referral: r.Referral,
		Source:   r.Source,
		Notes:    r.Notes,
	}
	if r.Status != nil {
		st := model.Status(*r.Status)
		in.Status = &st
	}
	return in
}

func (r UpdateApplicationRequest) toModel() model.ApplicationPatch {
	patch := model.ApplicationPatch{
		Company:  r.Company,
		Role:     r.Role,
		Location: r.Location,
		Referral: r.Referral,
		Source:   r.Source,
		Notes:    r.Notes,
	}
	if r.Status != nil {
		st := model.Status(*r.Status)
		patch.Status = &st
	}
	return patch
}

// List godoc
// @Summary List applications
// @Description Returns the caller's applications, most recently updated first.
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ApplicationListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /applications [get]
func (h *ApplicationHandler) List(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return fail(c, err)
	}

	apps, err := h.appService.List(c.Request().Context(), owner)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ApplicationListResponse{Applications: apps})
}

// Get godoc
// @Summary Get one application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} ApplicationResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := applicationID(c)
	if err != nil {
		return err
	}

	app, err := h.appService.Get(c.Request().Context(), owner, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ApplicationResponse{Application: app})
}

// Create godoc
// @Summary Create an application
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateApplicationRequest true "Application data"
// @Success 201 {object} ApplicationResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /applications [post]
func (h *ApplicationHandler) Create(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return fail(c, err)
	}

	var req CreateApplicationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(validationMessage(err), "VALIDATION_ERROR")
	}

	app, err := h.appService.Create(c.Request().Context(), owner, req.toModel())
	if err != nil {
		return fail(c, err)
	}

	h.metrics.ApplicationWrite("create")
	return c.JSON(http.StatusCreated, ApplicationResponse{Application: app})
}

// Update godoc
// @Summary Partially update an application
// @Description Only supplied fields change; the updated timestamp always refreshes.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body UpdateApplicationRequest true "Fields to change"
// @Success 200 {object} ApplicationResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /applications/{id} [patch]
func (h *ApplicationHandler) Update(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := applicationID(c)
	if err != nil {
		return err
	}

	var req UpdateApplicationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(validationMessage(err), "VALIDATION_ERROR")
	}

	app, err := h.appService.Update(c.Request().Context(), owner, id, req.toModel())
	if err != nil {
		return fail(c, err)
	}

	h.metrics.ApplicationWrite("update")
	return c.JSON(http.StatusOK, ApplicationResponse{Application: app})
}

// Delete godoc
// @Summary Delete an application
// @Tags applications
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) Delete(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := applicationID(c)
	if err != nil {
		return err
	}

	if err := h.appService.Delete(c.Request().Context(), owner, id); err != nil {
		return fail(c, err)
	}

	h.metrics.ApplicationWrite("delete")
	return c.NoContent(http.StatusNoContent)
}
