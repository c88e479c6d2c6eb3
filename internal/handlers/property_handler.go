package handlers

import (
	"net/http"

	"investoriq_backend/internal/services"
	"investoriq_backend/internal/services/dto"
	"investoriq_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type PropertyHandler struct {
	*BaseHandler
	propertyService services.PropertyService
}

func NewPropertyHandler(base *BaseHandler, propertyService services.PropertyService) *PropertyHandler {
	return &PropertyHandler{
		BaseHandler:     base,
		propertyService: propertyService,
	}
}

func (h *PropertyHandler) RegisterRoutes(protected *gin.RouterGroup) {
	properties := protected.Group("/properties")
	{
		properties.POST("/upload", h.Upload)
		properties.GET("", h.List)
		properties.GET("/:id", h.Get)
	}
}

// Upload godoc
// @Summary Загрузить документ объекта
// @Tags properties
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Документ (pdf, txt, csv, doc)"
// @Param property_name formData string true "Название объекта"
// @Param property_type formData string true "off_market или mls"
// @Success 200 {object} dto.UploadPropertyResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 413 {object} apperrors.ErrorResponse "Файл слишком большой"
// @Failure 415 {object} apperrors.ErrorResponse "Недопустимый тип файла"
// @Router /properties/upload [post]
func (h *PropertyHandler) Upload(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UploadPropertyRequest
	if !h.BindAndValidate_Form(c, &req) {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("File is required"))
		return
	}

	response, err := h.propertyService.Upload(c.Request.Context(), h.GetDB(c), userID, &req, file)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// List godoc
// @Summary Объекты пользователя
// @Tags properties
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PropertyResponse
// @Router /properties [get]
func (h *PropertyHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	list, err := h.propertyService.List(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Get godoc
// @Summary Объект по ID
// @Tags properties
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID объекта"
// @Success 200 {object} dto.PropertyResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /properties/{id} [get]
func (h *PropertyHandler) Get(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	property, err := h.propertyService.Get(c.Request.Context(), h.GetDB(c), c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, property)
}
