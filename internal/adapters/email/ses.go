package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the part of *sesv2.Client the sender uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends emails via Amazon SES.
type SESSender struct {
	client sesAPI
	from   string
	now    func() time.Time
}

// NewSESSender loads the default AWS configuration for region and returns a sender.
// PRE: from is a verified SES identity
// POST: Returns a ready-to-use sender or the configuration error
func NewSESSender(ctx context.Context, region, from string) (*SESSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newSESSender(sesv2.NewFromConfig(cfg), from), nil
}

func newSESSender(client sesAPI, from string) *SESSender {
	return &SESSender{client: client, from: from, now: time.Now}
}

// Send sends a single email via SES.
// PRE: req has at least one recipient and a subject
// POST: Email is accepted by SES; returns the SES message ID
func (s *SESSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, errors.New("ses send: no recipients")
	}
	from := req.From
	if from == "" {
		from = s.from
	}

	body := &types.Body{Html: utf8Content(req.HTML)}
	if req.Text != "" {
		body.Text = utf8Content(req.Text)
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: req.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(req.Subject),
				Body:    body,
			},
		},
	}
	if req.ReplyTo != "" {
		input.ReplyToAddresses = []string{req.ReplyTo}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		slog.Error("email_event", "event", "ses_send_failed", "error", err, "to", req.To, "subject", req.Subject)
		return SendResult{}, fmt.Errorf("ses send failed: %w", err)
	}
	id := aws.ToString(out.MessageId)
	slog.Info("email_event", "event", "ses_sent", "message_id", id, "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: id, SentAt: s.now()}, nil
}

// SendBatch sends each request in turn; SES has no multi-message send.
func (s *SESSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	return sendEach(ctx, s, reqs)
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}
