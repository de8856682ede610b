package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"github.com/maxaizer/job-tracker/internal/clients/gemini"
	"github.com/maxaizer/job-tracker/internal/config"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/maxaizer/job-tracker/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ContentGenerator produces application content. Implementations never fail:
// every call degrades to a deterministic default.
type ContentGenerator interface {
	CoverLetter(ctx context.Context, job *models.Job, profile *models.Profile) string
	Answers(ctx context.Context, questions []string, job *models.Job, profile *models.Profile) map[string]string
	MatchScore(ctx context.Context, job *models.Job, profile *models.Profile) float64
}

type aiClient interface {
	GenerateResponse(ctx context.Context, request string) (string, error)
}

type fallbackContentGenerator struct{}

func (fallbackContentGenerator) CoverLetter(_ context.Context, job *models.Job, profile *models.Profile) string {
	experience := profile.Experience
	if experience == "" {
		experience = "my field"
	}

	return fmt.Sprintf(`Dear Hiring Manager,

I am writing to express my strong interest in the %s position at %s. With my background in %s and expertise in %s, I am excited about the opportunity to contribute to your team.

%s

I am particularly drawn to this role because it aligns with my career goals and allows me to leverage my skills in a meaningful way. I would welcome the opportunity to discuss how my experience can benefit your organization.

Thank you for your consideration.

Sincerely,
[Your Name]`, job.Title, job.Company, experience, strings.Join(profile.TopSkills(3), ", "), profile.Summary)
}

func (fallbackContentGenerator) Answers(context.Context, []string, *models.Job, *models.Profile) map[string]string {
	return map[string]string{}
}

func (fallbackContentGenerator) MatchScore(context.Context, *models.Job, *models.Profile) float64 {
	return models.NeutralMatchScore
}

type aiContentGenerator struct {
	client   aiClient
	fallback fallbackContentGenerator
	scores   *gocache.Cache
}

func newAIContentGenerator(client aiClient, scores *gocache.Cache) *aiContentGenerator {
	return &aiContentGenerator{client: client, scores: scores}
}

func (g *aiContentGenerator) CoverLetter(ctx context.Context, job *models.Job, profile *models.Profile) string {
	start := time.Now()
	defer func() {
		metrics.ApplyStepDuration.WithLabelValues("cover_letter").Observe(time.Since(start).Seconds())
	}()

	response, err := g.client.GenerateResponse(ctx, coverLetterRequest(job, profile))
	if err == nil && strings.TrimSpace(response) == "" {
		err = gemini.ErrEmptyResponse
	}
	if err != nil {
		logAIFailure("cover letter", err)
		return g.fallback.CoverLetter(ctx, job, profile)
	}
	return strings.TrimSpace(response)
}

// Answers asks one question at a time. Questions that fail are left out.
func (g *aiContentGenerator) Answers(ctx context.Context, questions []string, job *models.Job,
	profile *models.Profile) map[string]string {

	answers := make(map[string]string, len(questions))
	for _, question := range questions {
		if strings.TrimSpace(question) == "" {
			continue
		}
		response, err := g.client.GenerateResponse(ctx, answerRequest(question, job, profile))
		if err != nil || strings.TrimSpace(response) == "" {
			logAIFailure("answer", err)
			continue
		}
		answers[question] = strings.TrimSpace(response)
	}
	return answers
}

func (g *aiContentGenerator) MatchScore(ctx context.Context, job *models.Job, profile *models.Profile) float64 {
	key := job.ID + ":" + profile.ID
	if cached, found := g.scores.Get(key); found {
		return cached.(float64)
	}

	response, err := g.client.GenerateResponse(ctx, matchScoreRequest(job, profile))
	if err != nil {
		logAIFailure("match score", err)
		return models.NeutralMatchScore
	}

	score, ok := parseScore(response)
	if !ok {
		log.Warnf("unexpected match score response %q for job %v", response, job.ID)
		metrics.CollaboratorFailuresCounter.WithLabelValues("ai").Inc()
		return models.NeutralMatchScore
	}

	g.scores.Set(key, score, gocache.DefaultExpiration)
	return score
}

var scorePattern = regexp.MustCompile(`-?(\d+(\.\d+)?|\.\d+)`)

// parseScore reads the first number of the response. Numbers outside [0,1] are
// rejected rather than clamped.
func parseScore(response string) (float64, bool) {
	match := scorePattern.FindString(response)
	if match == "" {
		return 0, false
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil || score < 0 || score > 1 {
		return 0, false
	}
	return score, true
}

func logAIFailure(what string, err error) {
	metrics.CollaboratorFailuresCounter.WithLabelValues("ai").Inc()
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).Errorf("failed to generate %s: %v", what, err)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func coverLetterRequest(job *models.Job, profile *models.Profile) string {
	return fmt.Sprintf(`Write a professional cover letter for the following job application.

Job Title: %s
Company: %s
Job Description: %s

Candidate Profile:
Skills: %s
Experience: %s
Summary: %s

Make it personalized and professional, highlight relevant skills. Keep it under 300 words.`,
		job.Title, job.Company, truncate(job.Description, 500),
		strings.Join(profile.Skills, ", "), profile.Experience, profile.Summary)
}

func answerRequest(question string, job *models.Job, profile *models.Profile) string {
	return fmt.Sprintf(`Answer this job application question professionally.
Question: %s

Context:
Job: %s at %s
Background: %s
Skills: %s

Provide a concise answer of 2-3 sentences.`,
		question, job.Title, job.Company, profile.Summary, strings.Join(profile.Skills, ", "))
}

func matchScoreRequest(job *models.Job, profile *models.Profile) string {
	return fmt.Sprintf(`Rate how well the candidate fits the job on a scale of 0.0 to 1.0.

Job: %s at %s
Job Description: %s

Candidate:
Skills: %s
Experience: %s
Target Positions: %s

Return only a decimal number between 0.0 and 1.0.`,
		job.Title, job.Company, truncate(job.Description, 300),
		strings.Join(profile.Skills, ", "), profile.Experience, strings.Join(profile.TargetPositions, ", "))
}

type aiClientFactory func(ctx context.Context, key string) (aiClient, error)

// ContentGenerators picks the generator for a user: the AI one when the user's
// settings or the process config carry a credential, the fallback otherwise.
// Clients are cached by a hash of their credential.
type ContentGenerators struct {
	defaultKey string
	newClient  aiClientFactory
	clients    *gocache.Cache
	scores     *gocache.Cache
}

func NewContentGenerators(cfg config.AIConfig) *ContentGenerators {
	return newContentGenerators(cfg.Key, func(ctx context.Context, key string) (aiClient, error) {
		client, err := gemini.NewClient(ctx, key, gemini.Model(cfg.Model))
		if err != nil {
			return nil, err
		}
		client.SetMinuteRateLimit(cfg.MaxRequestsPerMinute)
		client.SetDayRateLimit(cfg.MaxRequestsPerDay)
		return client, nil
	})
}

func newContentGenerators(defaultKey string, newClient aiClientFactory) *ContentGenerators {
	clients := gocache.New(time.Hour, 10*time.Minute)
	clients.OnEvicted(func(_ string, value any) {
		if closer, ok := value.(io.Closer); ok {
			_ = closer.Close()
		}
	})

	return &ContentGenerators{
		defaultKey: defaultKey,
		newClient:  newClient,
		clients:    clients,
		scores:     gocache.New(24*time.Hour, time.Hour),
	}
}

func (g *ContentGenerators) ForUser(ctx context.Context, settings *models.Settings) ContentGenerator {
	key := g.defaultKey
	if settings != nil && settings.AICredential != "" {
		key = settings.AICredential
	}
	if key == "" {
		return fallbackContentGenerator{}
	}

	cacheKey := credentialHash(key)
	if cached, found := g.clients.Get(cacheKey); found {
		return newAIContentGenerator(cached.(aiClient), g.scores)
	}

	client, err := g.newClient(ctx, key)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).Errorf("failed to create ai client: %v", err)
		return fallbackContentGenerator{}
	}
	g.clients.Set(cacheKey, client, gocache.DefaultExpiration)
	return newAIContentGenerator(client, g.scores)
}

// Close releases every cached client.
func (g *ContentGenerators) Close() {
	for key := range g.clients.Items() {
		g.clients.Delete(key)
	}
}

func credentialHash(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
