package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/3bdulrahman-M3/Front/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

var sendgridAPI = sendgrid.API // mockable

// sendgridService delivers through the SendGrid v3 API. Every mail is tagged with the
// environment and its category so alerts and account mails show apart in the SendGrid stats.
// Throttled (429) and 5xx answers are retried with an exponential backoff.
type sendgridService struct {
	key         string
	from        *sgmail.Email
	env         string
	appName     string
	frontendURL string
	subjPrefix  string
	logger      core.Logger
	newBackOff  func() backoff.BackOff
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(logger core.Logger, conf *core.Config) core.EmailService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		key:         conf.SendgridApiKey,
		from:        sgmail.NewEmail(from.Name, from.Address),
		env:         strings.ToLower(conf.Env),
		appName:     conf.AppName,
		frontendURL: conf.FrontendBaseURL,
		subjPrefix:  "[" + conf.AppName + "] ",
		logger:      logger,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 500 * time.Millisecond
			bo.MaxElapsedTime = time.Minute
			return bo
		},
	}
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := svc.deliver(msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending %q email: %v", category(*msg), err), err)
			}
		}()
	}
}

// deliver renders msg and posts it. Messages without recipients or content are dropped.
func (svc *sendgridService) deliver(msg *core.EmailMessage) error {
	if err := msg.Render(svc.appName, svc.frontendURL); err != nil {
		return errors.Wrap(err, "rendering")
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}

	body := sgmail.GetRequestBody(svc.prepare(*msg))
	return backoff.Retry(func() error { return svc.post(body) }, svc.newBackOff())
}

func (svc *sendgridService) post(body []byte) error {
	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
	req.Method = rest.Post
	req.Body = body

	res, err := sendgridAPI(req)
	if err != nil {
		return err
	}
	switch {
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
		return errors.Errorf("status %d", res.StatusCode)
	case res.StatusCode >= http.StatusBadRequest:
		return backoff.Permanent(errors.Errorf("status %d: %s", res.StatusCode, res.Body))
	}
	return nil
}

func (svc *sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(sgEmails(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		p.AddBCCs(sgEmails(msg.Bcc)...)
	}
	if msg.TemplateName != "" {
		p.SetCustomArg("template", msg.TemplateName)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)

	categories := []string{svc.appName}
	if svc.env != "" {
		categories = append(categories, svc.env)
	}
	if c := category(msg); c != "" {
		categories = append(categories, c)
	}
	m.AddCategories(categories...)

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func category(msg core.EmailMessage) string {
	if msg.Category != "" {
		return msg.Category
	}
	return msg.TemplateName
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	out := make([]*sgmail.Email, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, sgmail.NewEmail(a.Name, a.Address))
	}
	return out
}
