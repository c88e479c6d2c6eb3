package handlers

import (
	"io"
	"net/http"

	"investoriq_backend/internal/services"
	"investoriq_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody - провайдеры шлют небольшие события
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewWebhookHandler(base *BaseHandler, paymentService services.PaymentService) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

// RegisterRoutes: путь по имени активного провайдера, /webhook/stripe или /webhook/robokassa
func (h *WebhookHandler) RegisterRoutes(public *gin.RouterGroup) {
	public.POST("/webhook/"+h.paymentService.ProviderName(), h.Handle)
}

// Handle godoc
// @Summary Вебхук платёжного провайдера
// @Tags webhook
// @Accept json
// @Produce json
// @Param Stripe-Signature header string false "Подпись Stripe"
// @Success 200 {object} map[string]string
// @Failure 400 {object} apperrors.ErrorResponse "Неверная подпись или тело"
// @Router /webhook/stripe [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apperrors.HandleError(c, apperrors.ErrMalformedPayload)
		return
	}

	event, err := h.paymentService.HandleWebhook(c.Request.Context(), h.GetDB(c), body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	// Robokassa ждёт текстовый ответ "OK{InvId}"
	if event.Ack != "" {
		c.String(http.StatusOK, event.Ack)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
