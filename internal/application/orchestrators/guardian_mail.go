package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	emailAdapter "household/internal/adapters/email"
)

// mdRenderer renders mail bodies. Raw HTML in the markdown is escaped.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

const welcomeBody = `Hi %s,

Your household account is ready. Sign in with the username you chose to review
your family's athletes and enrollments.

Reply to this email if anything looks wrong.`

const revivedBody = `Hi %s,

Welcome back! Your previous household account has been restored with the details
you just entered. Your username and enrollment history carry over.`

// MailNotifier sends guardian notices through an email provider.
type MailNotifier struct {
	Sender  emailAdapter.Sender
	From    string
	ReplyTo string
}

// NotifyGuardians sends one mail per notice in a single batch. Failures are logged.
func (n *MailNotifier) NotifyGuardians(ctx context.Context, notices []GuardianNotice) {
	var reqs []emailAdapter.SendRequest
	for _, notice := range notices {
		if !strings.Contains(notice.Email, "@") {
			continue
		}
		req, err := n.render(notice)
		if err != nil {
			slog.Warn("email_event", "event", "guardian_mail_render_failed", "account_id", notice.AccountID, "error", err)
			continue
		}
		reqs = append(reqs, req)
	}
	if len(reqs) == 0 {
		return
	}
	results, err := n.Sender.SendBatch(ctx, reqs)
	if err != nil {
		slog.Warn("email_event", "event", "guardian_mail_failed", "count", len(reqs), "sent", len(results), "error", err)
		return
	}
	slog.Info("email_event", "event", "guardian_mail_sent", "count", len(results))
}

func (n *MailNotifier) render(notice GuardianNotice) (emailAdapter.SendRequest, error) {
	subject, body := "Welcome to your household account", welcomeBody
	if notice.Revived {
		subject, body = "Your household account has been restored", revivedBody
	}
	name := notice.FullName
	if name == "" {
		name = "there"
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert(fmt.Appendf(nil, body, escapeMarkdown(name)), &buf); err != nil {
		return emailAdapter.SendRequest{}, err
	}
	return emailAdapter.SendRequest{
		To:      []string{notice.Email},
		From:    n.From,
		Subject: subject,
		HTML:    buf.String(),
		Text:    fmt.Sprintf(body, name),
		ReplyTo: n.ReplyTo,
	}, nil
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
