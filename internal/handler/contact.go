package handler

import (
	"net/http"
	"strconv"

	"github.com/contactdesk/backend/internal/constants"
	"github.com/contactdesk/backend/internal/dto"
	apperrors "github.com/contactdesk/backend/internal/errors"
	"github.com/contactdesk/backend/internal/middleware"
	"github.com/contactdesk/backend/internal/model"
	"github.com/contactdesk/backend/internal/service"
	ctxutil "github.com/contactdesk/backend/pkg/context"
	"github.com/contactdesk/backend/pkg/logger"
	"github.com/contactdesk/backend/pkg/validation"
	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactService *service.ContactService
}

func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func (h *ContactHandler) owner(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("invalid token", nil))
	}
	return user, ok
}

func (h *ContactHandler) contactID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid contact ID", nil))
		return 0, false
	}
	return uint(id), true
}

// List returns one page of the authenticated user's contacts.
func (h *ContactHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "List")

	user, ok := h.owner(c)
	if !ok {
		return
	}

	pagination := constants.ParsePaginationParams(c)

	contacts, total, err := h.contactService.List(ctx, user.ID, pagination.Limit, pagination.Offset)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		logger.ErrorWithContext(ctx, "Failed to list contacts").
			Int("http_status", status).
			Err(err).
			Log()
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	pageTotal := int(total) / pagination.Limit
	if int(total)%pagination.Limit > 0 {
		pageTotal++
	}

	c.JSON(http.StatusOK, constants.BuildListResponse(total, pagination.Page, pageTotal, contacts))
}

func (h *ContactHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "GetByID")

	user, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := h.contactID(c)
	if !ok {
		return
	}

	contact, err := h.contactService.GetByID(ctx, user.ID, id)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Create")

	user, ok := h.owner(c)
	if !ok {
		return
	}

	var req dto.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Malformed create contact request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("invalid request body", validation.Describe(err)))
		return
	}

	contact, err := h.contactService.Create(ctx, user.ID, req)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		logger.ErrorWithContext(ctx, "Failed to create contact").
			Int("http_status", status).
			Err(err).
			Log()
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) Update(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Update")

	user, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := h.contactID(c)
	if !ok {
		return
	}

	var req dto.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("invalid request body", validation.Describe(err)))
		return
	}

	contact, err := h.contactService.Update(ctx, user.ID, id, req)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Delete")

	user, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := h.contactID(c)
	if !ok {
		return
	}

	if err := h.contactService.Delete(ctx, user.ID, id); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("contact deleted"))
}

// Search matches the user's contacts on exact name, surname or email.
func (h *ContactHandler) Search(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Search")

	user, ok := h.owner(c)
	if !ok {
		return
	}

	var req dto.SearchContactRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("invalid query parameters", nil))
		return
	}

	contacts, err := h.contactService.Search(ctx, user.ID, req)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, contacts)
}

// UpcomingBirthdays lists contacts with a birthday in the next seven days.
func (h *ContactHandler) UpcomingBirthdays(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpcomingBirthdays")

	user, ok := h.owner(c)
	if !ok {
		return
	}

	contacts, err := h.contactService.UpcomingBirthdays(ctx, user.ID)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, contacts)
}
