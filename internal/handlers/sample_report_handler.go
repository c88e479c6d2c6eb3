package handlers

import (
	"net/http"

	"investoriq_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type SampleReportHandler struct {
	*BaseHandler
	sampleService services.SampleReportService
}

func NewSampleReportHandler(base *BaseHandler, sampleService services.SampleReportService) *SampleReportHandler {
	return &SampleReportHandler{BaseHandler: base, sampleService: sampleService}
}

func (h *SampleReportHandler) RegisterRoutes(public *gin.RouterGroup) {
	public.GET("/sample-report", h.Info)
	public.GET("/sample-report/download", h.Download)
}

// Info godoc
// @Summary Информация о демо-отчёте
// @Tags sample-report
// @Produce json
// @Success 200 {object} dto.SampleReportInfo
// @Router /sample-report [get]
func (h *SampleReportHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.sampleService.Info(c.Request.Context()))
}

// Download godoc
// @Summary Скачать демо-отчёт
// @Tags sample-report
// @Produce application/pdf
// @Success 200 {file} file
// @Router /sample-report/download [get]
func (h *SampleReportHandler) Download(c *gin.Context) {
	file, err := h.sampleService.Download(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	SendFile(c, file, "application/pdf")
}
