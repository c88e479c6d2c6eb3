package payments

import (
	"fmt"
)

type Config struct {
	Provider  string
	Stripe    StripeConfig
	Robokassa RobokassaConfig
	// FakeSecret - ключ подписи вебхуков fake-провайдера
	FakeSecret string
}

// NewProvider выбирает провайдера по имени из конфига
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "stripe":
		return NewStripeProvider(cfg.Stripe), nil
	case "robokassa":
		return NewRobokassaProvider(cfg.Robokassa), nil
	case "fake":
		return NewFakeProvider(cfg.FakeSecret), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
