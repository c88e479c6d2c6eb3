package app

import (
	"context"

	"investoriq_backend/internal/config"
	"investoriq_backend/internal/email"
	"investoriq_backend/internal/llm"
	"investoriq_backend/internal/logger"
)

// newEmailProvider: без SMTP письма складываются в MockProvider
func newEmailProvider(cfg *config.Config) email.Provider {
	smtpCfg := email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	}
	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP is not configured, using mock email provider")
		return email.NewMockProvider()
	}
	provider, err := email.NewSMTPProvider(smtpCfg)
	if err != nil {
		logger.Warn("Invalid SMTP config, using mock email provider", "error", err)
		return email.NewMockProvider()
	}
	return provider
}

// offlineCompleter отвечает пустым JSON-объектом: конвейер проходит, поля отчёта - N/A
type offlineCompleter struct{}

func (offlineCompleter) Complete(context.Context, string, string) (string, error) {
	return "{}", nil
}

func newCompleter(cfg *config.Config) llm.Completer {
	if cfg.LLM.APIKey == "" {
		logger.Warn("LLM api_key is not set, analyses will use an offline stub")
		return offlineCompleter{}
	}
	return llm.NewClient(llm.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})
}
