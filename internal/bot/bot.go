package bot

import (
	"context"
	"errors"
	"fmt"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/job-tracker/internal/domain/events"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"strings"
	"time"
)

type Repositories struct {
	Settings     settingsRepository
	Applications applicationsRepository
}

type settingsRepository interface {
	Get(ctx context.Context, userID string) (*models.Settings, error)
	GetAll(ctx context.Context) ([]models.Settings, error)
}

type applicationsRepository interface {
	List(ctx context.Context, userID string, filter models.ApplicationFilter) ([]models.ApplicationDetails, error)
	Stats(ctx context.Context, userID string) (models.Stats, error)
}

var errChatNotLinked = errors.New("chat is not linked to any user")

const requestTimeout = 10 * time.Second

// Bot is the telegram notification channel. Users link a chat by storing its id
// in their notification settings; the bot then reports recorded applications and
// status changes there and answers a few read-only commands.
type Bot struct {
	client       *botApi.BotAPI
	api          apiInterface
	bus          EventBus.Bus
	repositories Repositories
}

func NewBot(token string, bus EventBus.Bus, repositories Repositories) (*Bot, error) {

	client, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", client.Self.UserName)

	err = botApi.SetLogger(log.StandardLogger())
	if err != nil {
		return nil, err
	}

	b, err := newBot(client, bus, repositories)
	if err != nil {
		return nil, err
	}
	b.client = client
	return b, nil
}

func newBot(api apiInterface, bus EventBus.Bus, repositories Repositories) (*Bot, error) {

	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	if repositories.Settings == nil {
		return nil, errors.New("settings repository is nil")
	}

	if repositories.Applications == nil {
		return nil, errors.New("applications repository is nil")
	}

	createdBot := &Bot{api: api, bus: bus, repositories: repositories}

	err := bus.SubscribeAsync(events.ApplicationRecordedTopic, createdBot.onApplicationRecorded, false)
	if err != nil {
		return nil, err
	}
	err = bus.SubscribeAsync(events.ApplicationStatusChangedTopic, createdBot.onApplicationStatusChanged, false)
	if err != nil {
		return nil, err
	}
	return createdBot, nil
}

func (b *Bot) Run() {

	updateConfig := botApi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.client.GetUpdatesChan(updateConfig)

	for update := range updates {

		if update.Message == nil {
			continue
		}

		if update.Message.Chat.IsGroup() || update.Message.Chat.IsSuperGroup() {
			continue
		}

		go b.handleMessage(update.Message)
	}
}

func (b *Bot) Stop() {
	_ = b.bus.Unsubscribe(events.ApplicationRecordedTopic, b.onApplicationRecorded)
	_ = b.bus.Unsubscribe(events.ApplicationStatusChangedTopic, b.onApplicationStatusChanged)
	if b.client != nil {
		b.client.StopReceivingUpdates()
	}
}

func (b *Bot) handleMessage(message *botApi.Message) {
	cmd := message.Command()
	if cmd == "" {
		_, _ = sendWithLogError(b.api, botApi.NewMessage(message.Chat.ID, "Expected a command."))
		return
	}
	b.handleCommand(message.Chat.ID, cmd)
}

func (b *Bot) handleCommand(chatID int64, command string) {

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var text string
	var err error

	switch command {
	case startCommandName:
		text = fmt.Sprintf("Hi! Your chat id is %d. Put it into your notification settings "+
			"to receive application updates here.", chatID)
	case statsCommandName:
		text, err = b.statsMessage(ctx, chatID)
	case recentCommandName:
		text, err = b.recentMessage(ctx, chatID)
	default:
		text = "Unknown command!"
	}

	if err != nil {
		if errors.Is(err, errChatNotLinked) {
			text = "This chat is not linked to an account yet. Send /start to get its id."
		} else {
			text = "Internal error!"
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Error(err)
		}
	}

	msg := botApi.NewMessage(chatID, text)
	msg.ReplyMarkup = defaultReplyKeyboard()
	_, _ = sendWithLogError(b.api, msg)
}

func (b *Bot) statsMessage(ctx context.Context, chatID int64) (string, error) {
	userID, err := b.linkedUser(ctx, chatID)
	if err != nil {
		return "", err
	}

	stats, err := b.repositories.Applications.Stats(ctx, userID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Applications: %d\nPending: %d\nResponse rate: %.1f%%\nProfiles: %d",
		stats.TotalApplications, stats.PendingApplications, stats.ResponseRate, stats.ActiveProfiles), nil
}

func (b *Bot) recentMessage(ctx context.Context, chatID int64) (string, error) {
	userID, err := b.linkedUser(ctx, chatID)
	if err != nil {
		return "", err
	}

	applications, err := b.repositories.Applications.List(ctx, userID,
		models.ApplicationFilter{Limit: recentApplicationsLimit})
	if err != nil {
		return "", err
	}

	if len(applications) == 0 {
		return "No applications yet.", nil
	}

	var sb strings.Builder
	for i, application := range applications {
		fmt.Fprintf(&sb, "%d. %s at %s: %s (%s)\n", i+1, application.JobTitle, application.Company,
			application.Status, application.AppliedDate.Format("Jan 02"))
	}
	return sb.String(), nil
}

func (b *Bot) linkedUser(ctx context.Context, chatID int64) (string, error) {
	all, err := b.repositories.Settings.GetAll(ctx)
	if err != nil {
		return "", err
	}

	settings, found := lo.Find(all, func(s models.Settings) bool {
		return s.Notification.Data().TelegramChatID == chatID
	})
	if !found {
		return "", errChatNotLinked
	}
	return settings.UserID, nil
}

func (b *Bot) onApplicationRecorded(event events.ApplicationRecorded) {
	b.notify(event.Application.UserID, func(settings models.NotificationSettings) (string, bool) {
		text := fmt.Sprintf("Application recorded: %s at %s", event.JobTitle, event.Company)
		if !event.Application.SubmissionConfirmed {
			text += "\nSubmission was not confirmed."
		}
		return text, settings.NotifyOnApply
	})
}

func (b *Bot) onApplicationStatusChanged(event events.ApplicationStatusChanged) {
	b.notify(event.UserID, func(settings models.NotificationSettings) (string, bool) {
		text := fmt.Sprintf("Application status changed: %s -> %s", event.From, event.To)
		if event.Notes != "" {
			text += "\nNotes: " + event.Notes
		}
		return text, settings.NotifyOnStatusChange
	})
}

func (b *Bot) notify(userID string, compose func(settings models.NotificationSettings) (string, bool)) {

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	settings, err := b.repositories.Settings.Get(ctx, userID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get settings: %v", err)
		return
	}

	notification := settings.Notification.Data()
	if notification.TelegramChatID == 0 {
		return
	}

	text, enabled := compose(notification)
	if !enabled {
		return
	}
	_, _ = sendWithLogError(b.api, botApi.NewMessage(notification.TelegramChatID, text))
}

func defaultReplyKeyboard() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton("/"+statsCommandName),
			botApi.NewKeyboardButton("/"+recentCommandName),
		),
	)
}
