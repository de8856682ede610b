package browser

import (
	"github.com/playwright-community/playwright-go"
	"time"
)

type formPage interface {
	Goto(url string, timeout time.Duration) error
	WaitFor(selector string, timeout time.Duration) error
	Count(selector string) (int, error)
	Fill(selector, value string, timeout time.Duration) error
	SetFiles(selector, path string, timeout time.Duration) error
	FillByLabel(label, value string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	Close() error
}

type session interface {
	NewPage() (formPage, error)
	Close() error
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func launchPlaywright(headless bool) (session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, err
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}

	return &playwrightSession{pw: pw, browser: browser}, nil
}

func (s *playwrightSession) NewPage() (formPage, error) {
	page, err := s.browser.NewPage()
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: page}, nil
}

func (s *playwrightSession) Close() error {
	if err := s.browser.Close(); err != nil {
		_ = s.pw.Stop()
		return err
	}
	return s.pw.Stop()
}

type playwrightPage struct {
	page playwright.Page
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   ms(timeout),
	})
	return err
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: ms(timeout),
	})
}

func (p *playwrightPage) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *playwrightPage) Fill(selector, value string, timeout time.Duration) error {
	return p.page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{Timeout: ms(timeout)})
}

func (p *playwrightPage) SetFiles(selector, path string, timeout time.Duration) error {
	return p.page.Locator(selector).First().SetInputFiles(path, playwright.LocatorSetInputFilesOptions{
		Timeout: ms(timeout),
	})
}

func (p *playwrightPage) FillByLabel(label, value string, timeout time.Duration) error {
	return p.page.GetByLabel(label).First().Fill(value, playwright.LocatorFillOptions{Timeout: ms(timeout)})
}

func (p *playwrightPage) Click(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{Timeout: ms(timeout)})
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
