package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to string, resetLink string) error {
	body := "A password reset was requested for your account.\r\n\r\n" +
		"Open the link below within one hour to choose a new password:\r\n" +
		resetLink + "\r\n\r\n" +
		"If you did not request this, you can ignore this message.\r\n"
	return m.deliver(ctx, to, "Password reset", body)
}

func (m *SMTPMailer) SendLeaderActivation(ctx context.Context, to string, msg ActivationMail) error {
	body := fmt.Sprintf("You have been registered as the leader of clan %s.\r\n\r\n"+
		"Activate your account within 24 hours:\r\n%s\r\n\r\n"+
		"Temporary password: %s\r\n"+
		"Change it after your first login.\r\n", msg.ClanID, msg.ActivationLink, msg.TemporaryPassword)
	return m.deliver(ctx, to, "Clan leader account", body)
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, subject string, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := []string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
