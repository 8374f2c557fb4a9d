package alerts

import "errors"

var (
	errWebhookDisabled   = errors.New("webhook alerter is disabled")
	errWebhookCooldown   = errors.New("alert is within cooldown period")
	errWebhookStatus     = errors.New("webhook returned non-2xx status")
	errWebhookURL        = errors.New("webhook url is required")
	errInvalidJSON       = errors.New("template produced invalid JSON")
	errTemplateParse     = errors.New("template parsing failed")
	errTemplateExecution = errors.New("template execution failed")
	errInvalidCooldown   = errors.New("invalid cooldown")
)
