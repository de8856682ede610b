package browser

import (
	"context"
	"fmt"
	"github.com/maxaizer/job-tracker/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strings"
	"sync"
	"time"
)

var (
	ErrFieldNotFound  = errors.New("required form field not found")
	ErrSubmitNotFound = errors.New("submit control not found")
)

// field is a logical form field with candidate identifiers in priority order.
// A form must have at least one identity field.
type field struct {
	name       string
	candidates []string
	identity   bool
}

var (
	nameField        = field{name: "name", candidates: []string{"name", "full_name", "applicant_name"}, identity: true}
	emailField       = field{name: "email", candidates: []string{"email", "email_address", "contact_email"}, identity: true}
	phoneField       = field{name: "phone", candidates: []string{"phone", "phone_number", "mobile"}}
	coverLetterField = field{name: "cover letter", candidates: []string{"cover_letter", "message", "additional_info"}}
)

const resumeSelector = "input[type='file']"

var submitSelectors = []string{"button[type='submit']", "input[type='submit']"}

func (f field) selectors() []string {
	selectors := make([]string, 0, len(f.candidates)*2)
	for _, candidate := range f.candidates {
		selectors = append(selectors, fmt.Sprintf("[name=%q]", candidate), "#"+candidate)
	}
	return selectors
}

type Submission struct {
	URL         string
	Name        string
	Email       string
	Phone       string
	CoverLetter string
	ResumePath  string
	Answers     map[string]string
}

type Options struct {
	Headless          bool
	FieldTimeout      time.Duration
	NavigationTimeout time.Duration
}

// Agent fills and submits remote application forms. The browser is started on
// first use and kept until Close. Calls are serialized.
type Agent struct {
	options Options
	launch  func() (session, error)

	mu      sync.Mutex
	session session
}

func NewAgent(options Options) *Agent {
	return &Agent{
		options: options,
		launch: func() (session, error) {
			return launchPlaywright(options.Headless)
		},
	}
}

func (a *Agent) Submit(ctx context.Context, submission Submission) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := a.openPage()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			log.Warnf("failed to close page: %v", closeErr)
		}
	}()

	if err = page.Goto(submission.URL, a.timeout(ctx, a.options.NavigationTimeout)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	return a.fillAndSubmit(ctx, page, submission)
}

// openPage opens a page in the running browser. A browser that can no longer open
// pages is dropped and started again once.
func (a *Agent) openPage() (formPage, error) {
	for attempt := 0; ; attempt++ {
		if a.session == nil {
			s, err := a.launch()
			if err != nil {
				return nil, fmt.Errorf("failed to start browser: %w", err)
			}
			a.session = s
		}

		page, err := a.session.NewPage()
		if err == nil {
			return page, nil
		}

		log.WithField(logger.ErrorTypeField, logger.ErrorTypeBrowser).Warnf("browser is unusable, dropping it: %v", err)
		if closeErr := a.session.Close(); closeErr != nil {
			log.Debugf("failed to close browser: %v", closeErr)
		}
		a.session = nil

		if attempt > 0 {
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
	}
}

func (a *Agent) fillAndSubmit(ctx context.Context, page formPage, submission Submission) error {

	fields := []struct {
		field
		value string
	}{
		{nameField, submission.Name},
		{emailField, submission.Email},
		{phoneField, submission.Phone},
		{coverLetterField, submission.CoverLetter},
	}

	identified := false
	for _, f := range fields {
		filled, err := a.fillField(ctx, page, f.field, f.value)
		if err != nil {
			return err
		}
		identified = identified || (filled && f.identity)
	}
	if !identified {
		return errors.Wrap(ErrFieldNotFound, "neither name nor email")
	}

	if submission.ResumePath != "" {
		if found, _ := a.waitAny(ctx, page, []string{resumeSelector}); found != "" {
			if err := page.SetFiles(found, submission.ResumePath, a.timeout(ctx, a.options.FieldTimeout)); err != nil {
				log.Warnf("failed to attach resume: %v", err)
			}
		}
	}

	for label, answer := range submission.Answers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := page.FillByLabel(label, answer, a.timeout(ctx, a.options.FieldTimeout)); err != nil {
			log.Debugf("no field for question %q: %v", label, err)
		}
	}

	submit, err := a.waitAny(ctx, page, submitSelectors)
	if err != nil {
		return err
	}
	if submit == "" {
		return ErrSubmitNotFound
	}
	return page.Click(submit, a.timeout(ctx, a.options.FieldTimeout))
}

// fillField fills the first present candidate of f. It reports false when the
// value is empty or no candidate appeared within the field timeout.
func (a *Agent) fillField(ctx context.Context, page formPage, f field, value string) (bool, error) {
	if value == "" {
		return false, nil
	}

	selector, err := a.waitAny(ctx, page, f.selectors())
	if err != nil || selector == "" {
		return false, err
	}

	if err = page.Fill(selector, value, a.timeout(ctx, a.options.FieldTimeout)); err != nil {
		return false, fmt.Errorf("failed to fill %s: %w", f.name, err)
	}
	return true, nil
}

// waitAny waits once for any of the selectors, then returns the first one present
// in priority order, or "" when none appeared in time.
func (a *Agent) waitAny(ctx context.Context, page formPage, selectors []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := page.WaitFor(strings.Join(selectors, ", "), a.timeout(ctx, a.options.FieldTimeout)); err != nil {
		return "", ctx.Err()
	}

	for _, selector := range selectors {
		count, err := page.Count(selector)
		if err != nil {
			return "", err
		}
		if count > 0 {
			return selector, nil
		}
	}
	return "", nil
}

// timeout bounds d by what is left of the context deadline.
func (a *Agent) timeout(ctx context.Context, d time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < d {
			return max(remaining, time.Millisecond)
		}
	}
	return d
}

// Close releases the browser if it was started.
func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return nil
	}
	err := a.session.Close()
	a.session = nil
	return err
}
