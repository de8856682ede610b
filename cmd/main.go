package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/job-tracker/internal/api"
	"github.com/maxaizer/job-tracker/internal/bot"
	"github.com/maxaizer/job-tracker/internal/clients/browser"
	"github.com/maxaizer/job-tracker/internal/clients/hh"
	"github.com/maxaizer/job-tracker/internal/clients/mail"
	"github.com/maxaizer/job-tracker/internal/config"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/maxaizer/job-tracker/internal/metrics"
	"github.com/maxaizer/job-tracker/internal/repositories"
	"github.com/maxaizer/job-tracker/internal/services"
	log "github.com/sirupsen/logrus"
	"os/signal"
	"syscall"
	"time"
)

type stores struct {
	users        *repositories.Users
	profiles     *repositories.Profiles
	jobs         *repositories.Jobs
	applications *repositories.Applications
	settings     *repositories.CachedSettings
}

func runBot(cfg *config.Config, bus EventBus.Bus, s stores) *bot.Bot {
	if cfg.Telegram.Token == "" {
		log.Info("telegram token is not set, telegram notifications are disabled")
		return nil
	}

	tgbot, err := bot.NewBot(cfg.Telegram.Token, bus, bot.Repositories{
		Settings:     s.settings,
		Applications: s.applications,
	})
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).Errorf("can't create bot: %v", err)
		return nil
	}
	go tgbot.Run()
	return tgbot
}

func newJobSearch(cfg *config.Config, jobs *repositories.Jobs) *services.JobSearch {
	var providers []services.JobProvider
	if cfg.HH.Enabled {
		hhClient := hh.NewClient()
		hhClient.SetRateLimit(cfg.HH.MaxRequestsPerSecond)
		providers = append(providers, services.NewHHJobsProvider(hhClient))
	}
	return services.NewJobSearch(jobs, providers...)
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(ctx, cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.API.MetricsAddress)

	dbContext, err := repositories.NewDbContext(cfg.DB)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	s := stores{
		users:        repositories.NewUsersRepository(dbContext.DB),
		profiles:     repositories.NewProfilesRepository(dbContext.DB),
		jobs:         repositories.NewJobsRepository(dbContext.DB),
		applications: repositories.NewApplicationsRepository(dbContext.DB),
		settings:     repositories.NewCachedSettings(repositories.NewSettingsRepository(dbContext.DB)),
	}

	bus := EventBus.New()

	generators := services.NewContentGenerators(cfg.AI)
	defer generators.Close()

	agent := browser.NewAgent(browser.Options{
		Headless:          cfg.Browser.Headless,
		FieldTimeout:      cfg.Browser.FieldTimeout,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
	})
	defer agent.Close()

	lifecycle, err := services.NewApplicationLifecycle(services.LifecycleRepositories{
		Users:        s.users,
		Profiles:     s.profiles,
		Jobs:         s.jobs,
		Applications: s.applications,
		Settings:     s.settings,
	}, generators, agent, services.NewEmailNotifier(mail.NewClient()), bus, cfg.Browser.ApplyTimeout)
	if err != nil {
		log.Fatalf("can't create application lifecycle: %v", err)
	}

	cleaner, err := services.NewJobsCleaner(s.jobs, cfg.Automation.JobExpirationDays)
	if err != nil {
		log.Fatalf("can't create jobs cleaner: %v", err)
	}
	defer cleaner.Stop()

	autoApplier, err := services.NewAutoApplier(services.AutoApplierRepositories{
		Settings:     s.settings,
		Profiles:     s.profiles,
		Jobs:         s.jobs,
		Applications: s.applications,
	}, generators, lifecycle, cfg.Automation)
	if err != nil {
		log.Fatalf("can't create auto applier: %v", err)
	}
	if cfg.Automation.Enabled {
		if err = autoApplier.Start(); err != nil {
			log.Fatalf("can't start auto applier: %v", err)
		}
		defer autoApplier.Stop()
	}

	tgbot := runBot(cfg, bus, s)

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(cfg.API, api.Dependencies{
		Auth:         services.NewAuth(s.users),
		Profiles:     s.profiles,
		Jobs:         s.jobs,
		JobSearch:    newJobSearch(cfg, s.jobs),
		Lifecycle:    lifecycle,
		Applications: s.applications,
		Settings:     s.settings,
		Account: services.NewAccount(services.AccountRepositories{
			Users:        s.users,
			Profiles:     s.profiles,
			Applications: s.applications,
			Settings:     s.settings,
		}),
	})
	go func() {
		if err := server.Run(); err != nil {
			log.Errorf("api server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down services...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("api shutdown failed: %v", err)
	}

	if tgbot != nil {
		tgbot.Stop()
	}
	bus.WaitAsync()
	log.Info("Services stopped.")
}
