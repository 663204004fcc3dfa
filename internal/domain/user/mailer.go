package user

import "context"

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

//go:generate mockgen -destination=../../mocks/mock_mailer.go -package=mocks job-tracker/internal/domain/user Mailer

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}
