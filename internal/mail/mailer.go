package mail

import "context"

type ActivationMail struct {
	ClanID            string
	ActivationLink    string
	TemporaryPassword string
}

// Mailer delivers the account mails sent by the auth flows.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to string, resetLink string) error
	SendLeaderActivation(ctx context.Context, to string, msg ActivationMail) error
}
