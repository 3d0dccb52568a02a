// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/config"
	"github.com/ecompria/themelock/internal/models"
	"github.com/ecompria/themelock/internal/store"
)

// NotificationService delivers license keys to customers and alerts admins.
// Delivery failures are logged, never propagated: a lost email must not fail
// an issuance that has already been persisted.
type NotificationService struct {
	audit store.AuditStore
	cfg   config.EmailConfig
	log   *logrus.Logger
}

func NewNotificationService(audit store.AuditStore, cfg config.EmailConfig, log *logrus.Logger) *NotificationService {
	return &NotificationService{
		audit: audit,
		cfg:   cfg,
		log:   log,
	}
}

var licenseEmailTmpl = template.Must(template.New("license_email").Parse(`
<h2>Your Theme License</h2>
<p>Hi {{.CustomerName}},</p>
<p>Thank you for your purchase{{if .OrderNumber}} (order #{{.OrderNumber}}){{end}}. Your license details:</p>
<ul>
  <li>Theme: <strong>{{.ThemeName}}</strong></li>
  <li>License key: <code>{{.LicenseKey}}</code></li>
  <li>License type: {{.LicenseType}}</li>
</ul>
<p>Register your license and generate auth tokens at <a href="{{.SiteURL}}/register">{{.SiteURL}}/register</a>.</p>
`))

var adminAlertTmpl = template.Must(template.New("admin_alert").Parse(`
<h2>New License Issued</h2>
<p>A license was issued to {{.CustomerName}} ({{.CustomerEmail}}){{if .OrderNumber}} for order #{{.OrderNumber}}{{end}}:</p>
<ul>
  <li>Theme: {{.ThemeName}}</li>
  <li>Key: <code>{{.LicenseKey}}</code></li>
  <li>Type: {{.LicenseType}}</li>
</ul>
`))

type licenseEmailData struct {
	CustomerName  string
	CustomerEmail string
	OrderNumber   string
	ThemeName     string
	LicenseKey    string
	LicenseType   models.LicenseType
	SiteURL       string
}

// SendLicenseIssued emails the license key to the customer and raises an
// admin alert, both durable (notification row) and by email when an admin
// address is configured.
func (s *NotificationService) SendLicenseIssued(license *models.License) {
	data := licenseEmailData{
		CustomerName:  license.CustomerName,
		CustomerEmail: license.CustomerEmail,
		OrderNumber:   license.OrderNumber,
		ThemeName:     license.ThemeName,
		LicenseKey:    license.LicenseKey,
		LicenseType:   license.LicenseType,
		SiteURL:       s.cfg.SiteURL,
	}

	subject := fmt.Sprintf("Your Theme License Key - %s", license.ThemeName)
	if err := s.sendTemplate(license.CustomerEmail, subject, licenseEmailTmpl, data); err != nil {
		s.log.WithError(err).WithField("email", license.CustomerEmail).Error("Failed to send license email")
	} else {
		s.log.WithFields(logrus.Fields{
			"email":       license.CustomerEmail,
			"license_key": license.LicenseKey,
		}).Info("License email sent")
	}

	notification := &models.AdminNotification{
		Type:     "license_issued",
		Title:    "New License Issued",
		Message:  fmt.Sprintf("License %s issued to %s for theme %s", license.LicenseKey, license.CustomerEmail, license.ThemeName),
		Priority: "medium",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.audit.InsertNotification(ctx, notification); err != nil {
		s.log.WithError(err).Error("Failed to create admin notification")
	}

	if s.cfg.AdminEmail != "" {
		if err := s.sendTemplate(s.cfg.AdminEmail, "New License Issued", adminAlertTmpl, data); err != nil {
			s.log.WithError(err).Error("Failed to send admin alert email")
		}
	}
}

func (s *NotificationService) sendTemplate(to, subject string, tmpl *template.Template, data interface{}) error {
	if s.cfg.SMTPHost == "" {
		// No SMTP configured (development); the notification row still exists.
		s.log.WithField("to", to).Debug("SMTP not configured, skipping email")
		return nil
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.cfg.FromName, s.cfg.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(body.Bytes())

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, msg.Bytes())
}
