package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/mediassist/internal/config"
	"github.com/wolfman30/mediassist/internal/notify"
	"github.com/wolfman30/mediassist/pkg/logging"
)

// BuildEmailSender returns nil when e-mail delivery is disabled.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.NotifyEmailProvider {
	case "", "none":
		return nil, nil
	case "stub":
		return notify.NewStubEmailSender(logger), nil
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; using stub email sender")
			return notify.NewStubEmailSender(logger), nil
		}
		return sender, nil
	case "ses":
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.NotifyEmailProvider)
	}
}

// BuildDispatcher always logs the messaging link and mirrors to e-mail when
// a sender and recipients are configured.
func BuildDispatcher(cfg *appconfig.Config, sender notify.EmailSender, logger *logging.Logger) notify.Dispatcher {
	dispatchers := notify.FanOut{notify.NewLogDispatcher(logger)}
	if sender != nil && cfg != nil && len(cfg.NotifyEmailRecipients) > 0 {
		dispatchers = append(dispatchers, notify.NewEmailDispatcher(sender, cfg.NotifyEmailRecipients, cfg.ClinicName))
	}
	return dispatchers
}
