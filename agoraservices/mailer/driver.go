package mailer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lunagic/agora/agoratools"
)

var ErrNoRecipients = errors.New("envelope has no recipients")

type EnvelopeTarget struct {
	Name  string
	Email string
}

func (target EnvelopeTarget) String() string {
	if target.Name == "" {
		return target.Email
	}

	return fmt.Sprintf("%q <%s>", target.Name, target.Email)
}

type Envelope struct {
	To      []EnvelopeTarget
	CC      []EnvelopeTarget
	BCC     []EnvelopeTarget
	From    EnvelopeTarget
	Subject string
	Body    string
}

func (envelope Envelope) Destinations() ([]string, error) {
	destinations := agoratools.Map(
		slices.Concat(envelope.To, envelope.CC, envelope.BCC),
		func(target EnvelopeTarget) string { return target.Email },
	)
	if len(destinations) == 0 {
		return nil, ErrNoRecipients
	}

	return destinations, nil
}

func (envelope Envelope) Message() []byte {
	join := func(targets []EnvelopeTarget) string {
		return strings.Join(agoratools.Map(targets, EnvelopeTarget.String), ", ")
	}

	builder := strings.Builder{}
	header := func(key string, value string) {
		if value != "" {
			builder.WriteString(key + ": " + value + "\r\n")
		}
	}

	header("From", envelope.From.String())
	header("To", join(envelope.To))
	header("Cc", join(envelope.CC))
	header("Subject", envelope.Subject)
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	builder.WriteString("\r\n")
	builder.WriteString(envelope.Body)

	return []byte(builder.String())
}

type Driver interface {
	Send(ctx context.Context, envelope Envelope) error
}
