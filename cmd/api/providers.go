package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/dentalstack/intake-platform/internal/assist"
	appconfig "github.com/dentalstack/intake-platform/internal/config"
	"github.com/dentalstack/intake-platform/internal/notify"
	"github.com/dentalstack/intake-platform/pkg/logging"
)

// resolveAIProvider picks the backend for "auto" based on which credentials
// are present, in priority order bedrock, gemini, openai.
func resolveAIProvider(cfg *appconfig.Config) (string, error) {
	switch cfg.AIProvider {
	case "bedrock", "gemini", "openai":
		return cfg.AIProvider, nil
	case "", "auto":
	default:
		return "", fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}
	if cfg.BedrockModelID != "" {
		return "bedrock", nil
	}
	if cfg.GeminiAPIKey != "" {
		return "gemini", nil
	}
	if cfg.OpenAIAPIKey != "" {
		return "openai", nil
	}
	return "", fmt.Errorf("no AI backend configured: set BEDROCK_MODEL_ID, GEMINI_API_KEY or OPENAI_API_KEY")
}

// buildLLMClient constructs the LLM client for the resolved provider and
// returns it together with the model identifier passed to the assist layer.
// When a secondary backend has credentials it is wired as a fallback.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (assist.LLMClient, string, error) {
	provider, err := resolveAIProvider(cfg)
	if err != nil {
		return nil, "", err
	}

	var primary assist.LLMClient
	var model string

	switch provider {
	case "bedrock":
		primary = assist.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		model = cfg.BedrockModelID
	case "gemini":
		client, err := assist.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, "", fmt.Errorf("gemini client: %w", err)
		}
		primary = client
		model = cfg.GeminiModelID
	case "openai":
		client, err := assist.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIModelID)
		if err != nil {
			return nil, "", fmt.Errorf("openai client: %w", err)
		}
		primary = client
		model = cfg.OpenAIModelID
	}
	logger.Info("AI backend configured", "provider", provider, "model", model)

	if provider != "openai" && cfg.OpenAIAPIKey != "" {
		fallback, err := assist.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIModelID)
		if err != nil {
			logger.Warn("openai fallback unavailable", "error", err)
			return primary, model, nil
		}
		logger.Info("openai configured as AI fallback", "model", cfg.OpenAIModelID)
		return assist.NewFallbackLLMClient(primary, fallback, logger.Logger), model, nil
	}
	return primary, model, nil
}

// buildEmailSender returns the configured sender, or nil when email delivery
// is not configured. Completion notifications are skipped in that case.
func buildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger.Component("email"))
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty")
			return nil
		}
		return sender
	case "ses":
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger.Component("email"))
		if sender == nil {
			return nil
		}
		return sender
	case "stub":
		return notify.NewStubEmailSender(logger.Component("email"))
	case "":
		return nil
	default:
		logger.Warn("unknown EMAIL_PROVIDER, notifications disabled", "provider", cfg.EmailProvider)
		return nil
	}
}
