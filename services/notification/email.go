package notifsvc

import (
	"net/mail"

	"github.com/healthymentoring/backend/core"
)

// template name and subject line per notification kind
var emailTemplates = map[core.NotificationKind]struct {
	template string
	subject  string
}{
	core.NotifSessionCancelled:         {"session-cancelled", "Your session has been cancelled"},
	core.NotifSessionCancelledByClient: {"session-cancelled-by-client", "A session was cancelled by its attendee"},
	core.NotifMentorLeft:               {"mentor-left", "A mentor left your session"},
	core.NotifClientLeft:               {"client-left", "An attendee left your session"},
	core.NotifTimezoneChanged:          {"timezone-changed", "Your timezone has been updated"},
}

type emailNotifier struct {
	mailSvc core.EmailService
	logger  core.Logger
}

var _ core.Notifier = (*emailNotifier)(nil)

func NewEmailNotifier(mailSvc core.EmailService, logger core.Logger) core.Notifier {
	return &emailNotifier{mailSvc: mailSvc, logger: logger}
}

func (n *emailNotifier) Dispatch(notifs ...core.Notification) {
	for _, notif := range notifs {
		tmpl, ok := emailTemplates[notif.Kind]
		if !ok {
			n.logger.Warn("no email template for notification kind " + string(notif.Kind))
			continue
		}

		// one message per recipient so each body can be personalized
		msgs := make([]*core.EmailMessage, 0, len(notif.Recipients))
		for _, rcpt := range notif.Recipients {
			if rcpt.Email == "" {
				continue
			}
			data := map[string]interface{}{"Name": rcpt.Name}
			for k, v := range notif.Context {
				data[k] = v
			}
			msgs = append(msgs, &core.EmailMessage{
				To:           []mail.Address{{Name: rcpt.Name, Address: rcpt.Email}},
				Subject:      tmpl.subject,
				TemplateName: tmpl.template,
				TemplateData: data,
			})
		}
		if len(msgs) > 0 {
			n.mailSvc.SendMessages(msgs...)
		}
	}
}
