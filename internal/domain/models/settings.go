package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultSMTPHost      = "smtp.gmail.com"
	DefaultSMTPPort      = 587
	DefaultMinMatchScore = 0.7
	DefaultDailyLimit    = 10
)

type EmailSettings struct {
	FromEmail string `json:"from_email" validate:"omitempty,email"`
	Password  string `json:"password"`
	SMTPHost  string `json:"smtp_host"`
	SMTPPort  int    `json:"smtp_port" validate:"gte=0,lte=65535"`
	Enabled   bool   `json:"enabled"`
}

type AutomationSettings struct {
	AutoApply     bool    `json:"auto_apply"`
	MinMatchScore float64 `json:"min_match_score" validate:"gte=0,lte=1"`
	DailyLimit    int     `json:"daily_limit" validate:"gte=1,lte=50"`
}

type NotificationSettings struct {
	TelegramChatID       int64 `json:"telegram_chat_id"`
	NotifyOnApply        bool  `json:"notify_on_apply"`
	NotifyOnStatusChange bool  `json:"notify_on_status_change"`
}

func DefaultEmailSettings() EmailSettings {
	return EmailSettings{SMTPHost: DefaultSMTPHost, SMTPPort: DefaultSMTPPort}
}

func DefaultAutomationSettings() AutomationSettings {
	return AutomationSettings{MinMatchScore: DefaultMinMatchScore, DailyLimit: DefaultDailyLimit}
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{NotifyOnApply: true, NotifyOnStatusChange: true}
}

// Settings is the single per-user configuration row. AICredential and the email
// password are secrets: they never leave the store through exports or logs.
type Settings struct {
	UserID       string `gorm:"primaryKey"`
	AICredential string
	Email        datatypes.JSONType[EmailSettings]
	Automation   datatypes.JSONType[AutomationSettings]
	Notification datatypes.JSONType[NotificationSettings]
	UpdatedAt    time.Time
}

func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:       userID,
		Email:        datatypes.NewJSONType(DefaultEmailSettings()),
		Automation:   datatypes.NewJSONType(DefaultAutomationSettings()),
		Notification: datatypes.NewJSONType(DefaultNotificationSettings()),
	}
}

// SettingsPatch carries a partial update: nil categories keep their stored values.
type SettingsPatch struct {
	AICredential *string               `json:"ai_credential,omitempty"`
	Email        *EmailSettings        `json:"email,omitempty"`
	Automation   *AutomationSettings   `json:"automation,omitempty"`
	Notification *NotificationSettings `json:"notification,omitempty"`
}

func (p SettingsPatch) Validate() error {
	if p.Email != nil {
		if err := Validate(p.Email); err != nil {
			return err
		}
	}
	if p.Automation != nil {
		if err := Validate(p.Automation); err != nil {
			return err
		}
	}
	return nil
}

// Merge applies the patch over s. An email patch with an empty password keeps the
// stored one, so clients that never see the secret can still edit the rest.
func (s *Settings) Merge(patch SettingsPatch) {
	if patch.AICredential != nil {
		s.AICredential = *patch.AICredential
	}
	if patch.Email != nil {
		email := *patch.Email
		if email.Password == "" {
			email.Password = s.Email.Data().Password
		}
		if email.SMTPHost == "" {
			email.SMTPHost = DefaultSMTPHost
		}
		if email.SMTPPort == 0 {
			email.SMTPPort = DefaultSMTPPort
		}
		s.Email = datatypes.NewJSONType(email)
	}
	if patch.Automation != nil {
		s.Automation = datatypes.NewJSONType(*patch.Automation)
	}
	if patch.Notification != nil {
		s.Notification = datatypes.NewJSONType(*patch.Notification)
	}
}

// PublicSettings is the secret-free view used by exports and the api.
type PublicSettings struct {
	AIConfigured bool                 `json:"ai_configured"`
	Email        PublicEmailSettings  `json:"email"`
	Automation   AutomationSettings   `json:"automation"`
	Notification NotificationSettings `json:"notification"`
}

type PublicEmailSettings struct {
	FromEmail string `json:"from_email"`
	SMTPHost  string `json:"smtp_host"`
	SMTPPort  int    `json:"smtp_port"`
	Enabled   bool   `json:"enabled"`
}

func (s *Settings) Public() PublicSettings {
	email := s.Email.Data()
	return PublicSettings{
		AIConfigured: s.AICredential != "",
		Email: PublicEmailSettings{
			FromEmail: email.FromEmail,
			SMTPHost:  email.SMTPHost,
			SMTPPort:  email.SMTPPort,
			Enabled:   email.Enabled,
		},
		Automation:   s.Automation.Data(),
		Notification: s.Notification.Data(),
	}
}
