package services

import (
	"bytes"
	"context"
	"github.com/maxaizer/job-tracker/internal/clients/mail"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/maxaizer/job-tracker/internal/metrics"
	log "github.com/sirupsen/logrus"
	"text/template"
)

type mailSender interface {
	Send(ctx context.Context, cfg mail.Config, message mail.Message) error
}

// EmailNotifier sends notifications through the user's own SMTP settings.
type EmailNotifier struct {
	sender mailSender
}

func NewEmailNotifier(sender mailSender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

// Notify returns every failure to the caller, which decides how much it matters.
func (n *EmailNotifier) Notify(ctx context.Context, settings models.EmailSettings, recipient, subject, body string) error {
	err := n.sender.Send(ctx, mail.Config{
		Host:     settings.SMTPHost,
		Port:     settings.SMTPPort,
		From:     settings.FromEmail,
		Password: settings.Password,
	}, mail.Message{To: recipient, Subject: subject, Body: body})

	if err != nil {
		metrics.CollaboratorFailuresCounter.WithLabelValues("email").Inc()
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeSmtp).Errorf("failed to send notification: %v", err)
	}
	return err
}

var appliedTemplate = template.Must(template.New("applied").Parse(
	`Your application for {{.Job.Title}} at {{.Job.Company}} has been recorded on {{.Application.AppliedDate.Format "Jan 02, 2006 15:04"}} UTC.
{{if .Application.SubmissionConfirmed}}
The application form was submitted.
{{else if .Job.URL}}
The application form was not submitted automatically. You can apply at {{.Job.URL}}
{{end}}`))

func appliedNotification(job *models.Job, application *models.Application) (subject, body string, err error) {
	var buf bytes.Buffer
	err = appliedTemplate.Execute(&buf, struct {
		Job         *models.Job
		Application *models.Application
	}{job, application})
	return "Job Application Submitted - " + job.Title, buf.String(), err
}
