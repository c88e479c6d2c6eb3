package services

import (
	"context"
	"fmt"
	"strings"

	"investoriq_backend/internal/email"
	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/models"
)

// EmailService - письма пользователю. Отправка best-effort:
// ошибка логируется и не влияет на основную операцию.
type EmailService interface {
	SendWelcome(ctx context.Context, user *models.User)
	SendPaymentReceipt(ctx context.Context, user *models.User, txn *models.PaymentTransaction, pkg models.Package, balance int)
	SendReportReady(ctx context.Context, user *models.User, report *models.AnalysisReport, pdf []byte)
}

type emailService struct {
	provider     email.Provider
	templates    *email.TemplateManager
	supportEmail string
}

func NewEmailService(provider email.Provider, supportEmail string) EmailService {
	return &emailService{
		provider:     provider,
		templates:    email.NewTemplateManager(),
		supportEmail: supportEmail,
	}
}

func (s *emailService) SendWelcome(ctx context.Context, user *models.User) {
	s.send(ctx, user.Email, "Welcome to InvestorIQ", email.TemplateWelcome, email.TemplateData{
		"Name":         user.Name,
		"SupportEmail": s.supportEmail,
	}, nil)
}

func (s *emailService) SendPaymentReceipt(ctx context.Context, user *models.User, txn *models.PaymentTransaction, pkg models.Package, balance int) {
	s.send(ctx, user.Email, "Your InvestorIQ receipt", email.TemplateReceipt, email.TemplateData{
		"Name":        user.Name,
		"PackageName": pkg.Name,
		"Amount":      fmt.Sprintf("%.2f", txn.Amount),
		"Currency":    strings.ToUpper(txn.Currency),
		"Reports":     pkg.Credits,
		"Balance":     balance,
		"SessionID":   txn.SessionID,
	}, nil)
}

func (s *emailService) SendReportReady(ctx context.Context, user *models.User, report *models.AnalysisReport, pdf []byte) {
	var attachments []email.Attachment
	if len(pdf) > 0 {
		attachments = append(attachments, email.Attachment{
			Name:        reportFileName(report.PropertyName),
			Content:     pdf,
			ContentType: "application/pdf",
		})
	}
	s.send(ctx, user.Email, "Your property analysis is ready", email.TemplateReportReady, email.TemplateData{
		"Name":         user.Name,
		"PropertyName": report.PropertyName,
	}, attachments)
}

func (s *emailService) send(ctx context.Context, to, subject, templateName string, data email.TemplateData, attachments []email.Attachment) {
	html, err := s.templates.Render(templateName, data)
	if err != nil {
		logger.CtxWithError(ctx, "failed to render email", err, "template", templateName)
		return
	}

	msg := &email.Email{
		To:          []string{to},
		Subject:     subject,
		HTMLBody:    html,
		Attachments: attachments,
	}
	if err := s.provider.Send(msg); err != nil {
		logger.CtxWithError(ctx, "failed to send email", err, "template", templateName, "to", to)
		return
	}
	logger.CtxDebug(ctx, "email sent", "template", templateName, "to", to)
}

// reportFileName - имя PDF при скачивании
func reportFileName(propertyName string) string {
	return propertyName + "_analysis.pdf"
}
