package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailerFormatsActivationMail(t *testing.T) {
	t.Parallel()

	m := NewSMTPMailer(SMTPConfig{Host: "mail.local", Username: "bot", Password: "pw", From: "noreply@clans.test"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.SendLeaderActivation(context.Background(), "leader@x.com", ActivationMail{
		ClanID:            "Alpha_01",
		ActivationLink:    "https://app.test/activate?token=abc",
		TemporaryPassword: "Tmp!pass1234",
	})
	require.NoError(t, err)

	assert.Equal(t, "mail.local:587", gotAddr)
	assert.Equal(t, "noreply@clans.test", gotFrom)
	assert.Equal(t, []string{"leader@x.com"}, gotTo)

	body := string(gotMsg)
	assert.True(t, strings.HasPrefix(body, "From: noreply@clans.test\r\n"))
	assert.Contains(t, body, "Subject: Clan leader account")
	assert.Contains(t, body, "https://app.test/activate?token=abc")
	assert.Contains(t, body, "Tmp!pass1234")
	assert.Contains(t, body, "Alpha_01")
}

func TestSMTPMailerWrapsTransportErrors(t *testing.T) {
	t.Parallel()

	m := NewSMTPMailer(SMTPConfig{Host: "mail.local", Port: 25, From: "noreply@clans.test"})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := m.SendPasswordReset(context.Background(), "user@x.com", "https://app.test/reset-password?token=t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user@x.com")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	m := NewSMTPMailer(SMTPConfig{Host: "mail.local", From: "noreply@clans.test"})
	called := false
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.SendPasswordReset(ctx, "user@x.com", "link")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
