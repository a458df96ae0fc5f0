package email

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	failOn int // 1-based call number that fails; 0 never fails
}

// SendEmail records the input.
// PRE: none
// POST: input appended; returns a numbered message id or an error on call failOn
func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if len(f.inputs) == f.failOn {
		return nil, errors.New("throttled")
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String(fmt.Sprintf("ses-%d", len(f.inputs)))}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	s := newSESSender(fake, "Club <noreply@club.example>")
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	res, err := s.Send(context.Background(), SendRequest{
		To:      []string{"dana@example.com"},
		Subject: "Welcome",
		HTML:    "<p>Hi</p>",
		Text:    "Hi",
		ReplyTo: "office@club.example",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.MessageID != "ses-1" || !res.SentAt.Equal(fixed) {
		t.Errorf("result = %+v", res)
	}
	in := fake.inputs[0]
	if aws.ToString(in.FromEmailAddress) != "Club <noreply@club.example>" {
		t.Errorf("from = %q", aws.ToString(in.FromEmailAddress))
	}
	if aws.ToString(in.Content.Simple.Body.Text.Data) != "Hi" || aws.ToString(in.Content.Simple.Subject.Data) != "Welcome" {
		t.Errorf("content = %+v", in.Content.Simple)
	}
	if len(in.ReplyToAddresses) != 1 || in.ReplyToAddresses[0] != "office@club.example" {
		t.Errorf("reply-to = %v", in.ReplyToAddresses)
	}

	if _, err := s.Send(context.Background(), SendRequest{Subject: "x"}); err == nil {
		t.Error("send without recipients must fail")
	}
}

func TestSESSender_SendBatchStopsAtFailure(t *testing.T) {
	fake := &fakeSES{failOn: 2}
	s := newSESSender(fake, "noreply@club.example")
	reqs := []SendRequest{
		{To: []string{"a@example.com"}, Subject: "1"},
		{To: []string{"b@example.com"}, Subject: "2"},
		{To: []string{"c@example.com"}, Subject: "3"},
	}
	results, err := s.SendBatch(context.Background(), reqs)
	if err == nil {
		t.Fatal("expected failure")
	}
	if len(results) != 1 || len(fake.inputs) != 2 {
		t.Errorf("results = %d, calls = %d", len(results), len(fake.inputs))
	}
}

func TestNoopSender_RecordsSends(t *testing.T) {
	s := NewNoopSender()
	results, err := s.SendBatch(context.Background(), []SendRequest{
		{To: []string{"a@example.com"}, Subject: "one"},
		{To: []string{"b@example.com"}, Subject: "two"},
	})
	if err != nil || len(results) != 2 || results[0].MessageID == results[1].MessageID {
		t.Fatalf("results = %+v, %v", results, err)
	}
	if sent := s.Sent(); len(sent) != 2 || sent[1].Subject != "two" {
		t.Errorf("sent = %+v", sent)
	}
}
