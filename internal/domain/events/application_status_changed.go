package events

import "github.com/maxaizer/job-tracker/internal/domain/models"

var ApplicationStatusChangedTopic = "ApplicationStatusChangedEvent"

type ApplicationStatusChanged struct {
	UserID        string
	ApplicationID string
	From          models.Status
	To            models.Status
	Notes         string
}
