package repositories

import (
	"context"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	gocache "github.com/patrickmn/go-cache"
	"time"
)

type settingsRepository interface {
	Get(ctx context.Context, userID string) (*models.Settings, error)
	Save(ctx context.Context, userID string, patch models.SettingsPatch) (*models.Settings, error)
	GetAll(ctx context.Context) ([]models.Settings, error)
}

// CachedSettings keeps recently read settings in memory. Every write goes through
// Save, which refreshes the cached entry, so reads never see stale rows written by
// this process.
type CachedSettings struct {
	repo  settingsRepository
	cache *gocache.Cache
}

func NewCachedSettings(repo settingsRepository) *CachedSettings {
	return &CachedSettings{repo: repo, cache: gocache.New(10*time.Minute, 20*time.Minute)}
}

func (c *CachedSettings) Get(ctx context.Context, userID string) (*models.Settings, error) {
	if value, found := c.cache.Get(userID); found {
		settings := value.(models.Settings)
		return &settings, nil
	}

	settings, err := c.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(userID, *settings)
	return settings, nil
}

func (c *CachedSettings) Save(ctx context.Context, userID string, patch models.SettingsPatch) (*models.Settings, error) {
	c.cache.Delete(userID)

	settings, err := c.repo.Save(ctx, userID, patch)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(userID, *settings)
	return settings, nil
}

func (c *CachedSettings) GetAll(ctx context.Context) ([]models.Settings, error) {
	return c.repo.GetAll(ctx)
}

func (c *CachedSettings) Invalidate(userID string) {
	c.cache.Delete(userID)
}
