package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/config"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/templates"
)

// EmailService sends transactional mail over SMTP using the embedded
// HTML templates. It implements RegistrationMailer and BracketMailer.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP is not configured")
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Implicit TLS.
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("smtp client setup failed: %w", err)
		}
	} else {
		// STARTTLS, the usual path on port 587.
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp STARTTLS failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s failed: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp message write failed: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp DATA close failed: %w", err)
	}

	return nil
}

func (s *EmailService) generateEmailBody(templateName string, data interface{}) (string, error) {
	t, err := template.ParseFS(templates.Emails, "emails/"+templateName)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return body.String(), nil
}

func (s *EmailService) SendRegistrationConfirmation(to, tournamentName, podName, manageToken string) error {
	subject := fmt.Sprintf("Registration confirmed for %s", tournamentName)

	manageLink := ""
	if manageToken != "" {
		manageLink = fmt.Sprintf("%s/manage-pod?token=%s", s.cfg.PublicURL, manageToken)
	}
	data := struct {
		TournamentName string
		PodName        string
		ManageLink     string
	}{
		TournamentName: tournamentName,
		PodName:        podName,
		ManageLink:     manageLink,
	}

	body, err := s.generateEmailBody("registration_confirmation.html", data)
	if err != nil {
		return err
	}
	return s.SendEmail([]string{to}, subject, body)
}

func (s *EmailService) SendBracketSeeded(to []string, tournamentName string) error {
	subject := fmt.Sprintf("The %s bracket is set", tournamentName)

	data := struct {
		TournamentName string
		BracketLink    string
	}{
		TournamentName: tournamentName,
		BracketLink:    s.cfg.PublicURL + "/bracket",
	}

	body, err := s.generateEmailBody("bracket_seeded.html", data)
	if err != nil {
		return err
	}

	// One message per recipient so addresses are not disclosed.
	for _, rcpt := range to {
		if err := s.SendEmail([]string{rcpt}, subject, body); err != nil {
			return fmt.Errorf("failed to send bracket notification to %s: %w", rcpt, err)
		}
	}
	return nil
}
