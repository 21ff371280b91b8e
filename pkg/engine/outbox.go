package engine

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/google/uuid"
)

// Mailer delivers the email of a send email step and returns the client response.
type Mailer interface {
	Send(ctx context.Context, email models.SmtpEmailStepInputs) (map[string]any, error)
}

// Outbox is a Mailer that keeps every email instead of delivering it.
type Outbox struct {
	mu   sync.Mutex
	sent []models.SmtpEmailStepInputs
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Send(_ context.Context, email models.SmtpEmailStepInputs) (map[string]any, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sent = append(o.sent, email)

	accepted := []any{email.To}
	for _, address := range []string{email.CC, email.BCC} {
		if address == "" {
			continue
		}

		for _, recipient := range splitList(address) {
			accepted = append(accepted, recipient)
		}
	}

	return map[string]any{
		"accepted":  accepted,
		"messageId": "<" + uuid.NewString() + "@autoflow>",
	}, nil
}

// Sent returns the emails kept so far, oldest first.
func (o *Outbox) Sent() []models.SmtpEmailStepInputs {
	o.mu.Lock()
	defer o.mu.Unlock()

	return slices.Clone(o.sent)
}

// splitList splits a comma separated list, dropping blank entries.
func splitList(list string) []string {
	var parts []string

	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	return parts
}

// QueryRunner executes a saved datasource query.
type QueryRunner interface {
	RunQuery(ctx context.Context, query models.QueryReference) (any, error)
}

// QueryFunc adapts a function to QueryRunner.
type QueryFunc func(ctx context.Context, query models.QueryReference) (any, error)

func (f QueryFunc) RunQuery(ctx context.Context, query models.QueryReference) (any, error) {
	return f(ctx, query)
}
