package handlers

import (
	"net/http"

	"investoriq_backend/internal/services"
	"investoriq_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	*BaseHandler
	analysisService services.AnalysisService
}

func NewAnalysisHandler(base *BaseHandler, analysisService services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler:     base,
		analysisService: analysisService,
	}
}

func (h *AnalysisHandler) RegisterRoutes(protected *gin.RouterGroup) {
	analysis := protected.Group("/analysis")
	{
		analysis.POST("/generate/:property_id", h.Generate)
		analysis.GET("/:id", h.Get)
		analysis.GET("/:id/download", h.Download)
	}
	protected.GET("/analyses", h.List)
}

// Generate godoc
// @Summary Запустить анализ объекта
// @Description Разбор документа, анализ и PDF. Кредит списывается только при успехе.
// @Tags analysis
// @Produce json
// @Security BearerAuth
// @Param property_id path string true "ID объекта"
// @Success 200 {object} dto.GenerateAnalysisResponse
// @Failure 403 {object} apperrors.ErrorResponse "Нет кредитов"
// @Failure 404 {object} apperrors.ErrorResponse "Объект не найден"
// @Router /analysis/generate/{property_id} [post]
func (h *AnalysisHandler) Generate(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	rep, err := h.analysisService.StartAnalysis(c.Request.Context(), h.GetDB(c), c.Param("property_id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GenerateAnalysisResponse{AnalysisID: rep.ID, Status: rep.Status})
}

// Get godoc
// @Summary Отчёт по ID
// @Tags analysis
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID отчёта"
// @Success 200 {object} dto.AnalysisResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /analysis/{id} [get]
func (h *AnalysisHandler) Get(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	rep, err := h.analysisService.GetAnalysis(c.Request.Context(), h.GetDB(c), c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAnalysisResponse(rep))
}

// List godoc
// @Summary Отчёты пользователя
// @Tags analysis
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AnalysisResponse
// @Router /analyses [get]
func (h *AnalysisHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	list, err := h.analysisService.ListAnalyses(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	out := make([]*dto.AnalysisResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewAnalysisResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Download godoc
// @Summary Скачать PDF отчёта
// @Tags analysis
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID отчёта"
// @Success 200 {file} file
// @Failure 404 {object} apperrors.ErrorResponse "PDF недоступен"
// @Router /analysis/{id}/download [get]
func (h *AnalysisHandler) Download(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	file, err := h.analysisService.DownloadReport(c.Request.Context(), h.GetDB(c), c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	SendFile(c, file, "application/pdf")
}
