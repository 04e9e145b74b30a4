package services

import (
	"github.com/nick-lortz/steelbuild-pro-sub016/internal/config"
)

// IntegrationService reports which external providers are configured.
// It only ever reports presence; secret values never leave the server.
type IntegrationService struct {
	Cfg config.IntegrationsConfig

	PushPublicKey  string
	pushPrivateKey string
}

func NewIntegrationService(cfg config.Config) *IntegrationService {
	return &IntegrationService{
		Cfg:            cfg.Integrations,
		PushPublicKey:  cfg.PushPublicKey,
		pushPrivateKey: cfg.PushPrivateKey,
	}
}

// IntegrationStatus describes one provider's configuration state.
type IntegrationStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Status lists every known provider and whether its secret is set.
func (s *IntegrationService) Status() []IntegrationStatus {
	return []IntegrationStatus{
		{Name: "chat", Configured: s.Cfg.ChatWebhookURL != ""},
		{Name: "accounting", Configured: s.Cfg.AccountingAPIKey != ""},
		{Name: "weather", Configured: s.Cfg.WeatherAPIKey != ""},
		{Name: "llm", Configured: s.Cfg.LLMAPIKey != ""},
		{Name: "push", Configured: s.PushPublicKey != "" && s.pushPrivateKey != ""},
	}
}

// PublicKey returns the push subscription public key. This is the only
// key material callers can read; the private key has no accessor.
func (s *IntegrationService) PublicKey() string {
	return s.PushPublicKey
}
