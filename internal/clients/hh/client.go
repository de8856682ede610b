package hh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"golang.org/x/time/rate"
	"io"
	"net/http"
)

const baseURL = "https://api.hh.ru"

type getVacanciesResponse struct {
	Vacancies []VacancyPreview `json:"items"`
	Found     int              `json:"found"`
	Pages     int              `json:"pages"`
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
	userAgent   string
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{}, userAgent: "job-tracker/1.0"}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) GetVacancies(ctx context.Context, parameters SearchParameters) ([]VacancyPreview, error) {

	if err := parameters.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	params := parameters.ToUrlParams()

	body, err := c.sendRequest(ctx, http.MethodGet, baseURL+"/vacancies?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var vacanciesResponse getVacanciesResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&vacanciesResponse); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}

	return vacanciesResponse.Vacancies, nil
}

// GetAreas returns the whole area tree flattened into a single list.
func (c *Client) GetAreas(ctx context.Context) ([]Area, error) {

	body, err := c.sendRequest(ctx, http.MethodGet, baseURL+"/areas", nil)
	if err != nil {
		return nil, err
	}

	var areas []area
	if err = json.NewDecoder(bytes.NewReader(body)).Decode(&areas); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}

	var allAreas []Area

	var collectAreas func(areas []area)
	collectAreas = func(areas []area) {
		for _, area := range areas {
			allAreas = append(allAreas, Area{ID: area.ID, Name: area.Name})
			collectAreas(area.Areas)
		}
	}
	collectAreas(areas)
	return allAreas, nil
}

func (c *Client) sendRequest(ctx context.Context, method string, url string, body io.Reader) ([]byte, error) {

	if c.rateLimiter != nil {
		err := c.rateLimiter.Wait(ctx)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %v, body: %v", resp.StatusCode, string(body))
	}

	return body, nil
}
