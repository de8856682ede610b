package hh

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type VacancyPreview struct {
	ID          string
	Name        string
	Url         string     `json:"alternate_url"`
	PublishedAt CustomTime `json:"published_at"`
	Employer    *Employer  `json:"employer"`
	Area        *Area      `json:"area"`
	Salary      *Salary    `json:"salary"`
	Snippet     *Snippet   `json:"snippet"`
}

type Employer struct {
	Name string `json:"name"`
}

type Snippet struct {
	Requirement    string `json:"requirement"`
	Responsibility string `json:"responsibility"`
}

type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
}

// String renders the salary the way hh shows it: "100000-150000 RUR", "from 100000 RUR".
func (s *Salary) String() string {
	if s == nil || (s.From == nil && s.To == nil) {
		return ""
	}

	var b strings.Builder
	switch {
	case s.From != nil && s.To != nil:
		fmt.Fprintf(&b, "%d-%d", *s.From, *s.To)
	case s.From != nil:
		fmt.Fprintf(&b, "from %d", *s.From)
	default:
		fmt.Fprintf(&b, "up to %d", *s.To)
	}
	if s.Currency != "" {
		b.WriteString(" " + s.Currency)
	}
	return b.String()
}

type CustomTime struct {
	time.Time
}

func (dt *CustomTime) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}

	t, err := time.Parse("2006-01-02T15:04:05-0700", str)
	if err != nil {
		return fmt.Errorf("parsing time %s: %v", str, err)
	}
	dt.Time = t
	return nil
}
