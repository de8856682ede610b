package events

import "github.com/maxaizer/job-tracker/internal/domain/models"

var ApplicationRecordedTopic = "ApplicationRecordedEvent"

type ApplicationRecorded struct {
	Application models.Application
	JobTitle    string
	Company     string
}
