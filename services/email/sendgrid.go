package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/gothwad/classesx/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
	sendAttempts     = 3
)

// retryDelay is the wait before the first retry. It doubles after each one.
var retryDelay = 2 * time.Second

// SendgridService sends emails through the SendGrid v3 API.
// Rate limited and 5xx answers are retried a few times before giving up.
type SendgridService struct {
	key    string
	host   string
	from   *sgmail.Email
	prefix string
	logger core.Logger
}

var _ core.EmailService = (*SendgridService)(nil)

func NewSendgridService(logger core.Logger) *SendgridService {
	from := core.Conf.FromAddress()
	return &SendgridService{
		key:    core.Conf.SendgridApiKey,
		host:   sendgridHost,
		from:   sgmail.NewEmail(from.Name, from.Address),
		prefix: "[" + core.Conf.AppName + "] ",
		logger: logger,
	}
}

// SendMessages renders and sends each message in a goroutine of its own.
// Messages without recipients or without anything to say are dropped.
func (svc *SendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			if err := msg.Render(); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
				return
			}
			if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
				return
			}
			if err := svc.send(*msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email %q: %v", msg.Subject, err), err)
			}
		}(msg)
	}
}

func (svc *SendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	address := func(a mail.Address) *sgmail.Email { return sgmail.NewEmail(a.Name, a.Address) }

	p := sgmail.NewPersonalization()
	p.Subject = svc.prefix + msg.Subject
	for _, a := range msg.To {
		p.AddTos(address(a))
	}
	for _, a := range msg.Cc {
		p.AddCCs(address(a))
	}
	for _, a := range msg.Bcc {
		p.AddBCCs(address(a))
	}

	m := sgmail.NewV3Mail().SetFrom(svc.from).AddPersonalizations(p)
	// text/plain must come first, and empty values are refused
	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, at := range msg.Attachments {
		m.AddAttachment(sgmail.NewAttachment().
			SetContent(at.Content.String()).
			SetType(at.ContentType).
			SetFilename(at.Filename).
			SetDisposition("attachment"))
	}
	return m
}

func (svc *SendgridService) send(msg core.EmailMessage) error {
	body := sgmail.GetRequestBody(svc.prepare(msg))
	delay := retryDelay

	var lastErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(delay)
			delay *= 2
		}
		req := sendgrid.GetRequest(svc.key, sendgridEndpoint, svc.host)
		req.Method = http.MethodPost
		req.Body = body

		res, err := sendgrid.API(req)
		switch {
		case err != nil:
			lastErr = err
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("status %d: %s", res.StatusCode, res.Body)
		case res.StatusCode >= http.StatusBadRequest:
			return fmt.Errorf("status %d: %s", res.StatusCode, res.Body)
		default:
			return nil
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", sendAttempts, lastErr)
}
