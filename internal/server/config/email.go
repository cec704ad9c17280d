package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
)

// ErrEmailConfig is returned when notifications are enabled without the
// settings they need.
var ErrEmailConfig = errors.New("invalid email configuration")

// DefaultTemplateDir is the bundled template location. It is dropped with a
// warning when the text template is not found there.
const DefaultTemplateDir = "res/templates"

type EmailConfig struct {
	EnableNotifs             bool
	SMTPHost                 string
	SMTPPort                 int
	SMTPUser                 string
	SMTPPass                 string
	RequireTransportSecurity bool
	NotifFrom                string
	NotifTemplateHTML        string
	NotifTemplateText        string
	TemplateDir              string
	NotifForNewUsers         bool
	RiotBaseURL              string
	AppName                  string
}

func (e *EmailConfig) LoadDefaults() {
	e.NotifForNewUsers = true
	e.AppName = "Matrix"
}

// Validate checks the section when notifications are enabled and returns
// warnings for settings it corrected.
func (e *EmailConfig) Validate(publicBaseURL string) ([]string, error) {
	if !e.EnableNotifs {
		return nil, nil
	}

	var missing []string
	if e.SMTPHost == "" {
		missing = append(missing, "smtp_host")
	}
	if e.SMTPPort == 0 {
		missing = append(missing, "smtp_port")
	}
	if e.NotifFrom == "" {
		missing = append(missing, "notif_from")
	}
	if e.NotifTemplateHTML == "" {
		missing = append(missing, "notif_template_html")
	}
	if e.NotifTemplateText == "" {
		missing = append(missing, "notif_template_text")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: email.enable_notifs is true but required keys are missing: %s",
			ErrEmailConfig, joinKeys(missing, "email."))
	}

	if publicBaseURL == "" {
		return nil, fmt.Errorf("%w: email.enable_notifs is true but no public_baseurl is set", ErrEmailConfig)
	}

	if _, err := mail.ParseAddress(e.NotifFrom); err != nil {
		return nil, fmt.Errorf("%w: invalid notif_from address %q: %v", ErrEmailConfig, e.NotifFrom, err)
	}

	if e.AppName == "" {
		e.AppName = "Matrix"
	}

	var warnings []string
	if e.TemplateDir == DefaultTemplateDir {
		if _, err := os.Stat(filepath.Join(e.TemplateDir, e.NotifTemplateText)); err != nil {
			warnings = append(warnings, fmt.Sprintf(
				"email notifier is configured to look for templates in %q but none were found there; falling back to the example templates",
				e.TemplateDir))
			e.TemplateDir = ""
		}
	}

	return warnings, nil
}
