package handlers

import (
	"net/http"

	"investoriq_backend/internal/services"
	"investoriq_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

// RegisterRoutes: справочник пакетов публичный, остальное под токеном
func (h *PaymentHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/payments/packages", h.Packages)

	payments := protected.Group("/payments")
	{
		payments.POST("/checkout", h.Checkout)
		payments.GET("/status/:session_id", h.Status)
	}
}

// Packages godoc
// @Summary Пакеты кредитов
// @Tags payments
// @Produce json
// @Success 200 {object} dto.PackagesResponse
// @Router /payments/packages [get]
func (h *PaymentHandler) Packages(c *gin.Context) {
	c.JSON(http.StatusOK, h.paymentService.Packages())
}

// Checkout godoc
// @Summary Создать checkout-сессию
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckoutRequest true "Пакет и origin фронтенда"
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} apperrors.ErrorResponse "Неизвестный пакет"
// @Failure 502 {object} apperrors.ErrorResponse "Провайдер недоступен"
// @Router /payments/checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.paymentService.CreateCheckout(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Status godoc
// @Summary Статус оплаты
// @Description Сверяет сессию с провайдером и начисляет кредиты не больше одного раза
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param session_id path string true "ID сессии"
// @Success 200 {object} dto.PaymentStatusResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 502 {object} apperrors.ErrorResponse
// @Router /payments/status/{session_id} [get]
func (h *PaymentHandler) Status(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	status, err := h.paymentService.GetStatus(c.Request.Context(), h.GetDB(c), userID, c.Param("session_id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
