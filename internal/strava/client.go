package strava

import (
	"alcyxob/runcoach-app/internal/config"
	"alcyxob/runcoach-app/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ActivitySource is the external fitness-service sync client. The
// reconciliation core only ever sees the resulting []domain.Activity;
// token exchange and pagination stay behind this interface.
type ActivitySource interface {
	FetchRecentActivities(ctx context.Context) ([]domain.Activity, error)
}

// client implements ActivitySource against the Strava v3 API using the
// refresh-token grant. Access tokens are cached until shortly before expiry.
type client struct {
	httpClient *http.Client
	baseURL    string
	cfg        config.StravaConfig

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewClient creates a Strava activity sync client.
func NewClient(cfg config.StravaConfig) ActivitySource {
	return &client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:        cfg,
	}
}

// --- Wire types ---

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type apiActivity struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	SportType        string  `json:"sport_type"`
	StartDate        string  `json:"start_date"`
	Distance         float64 `json:"distance"`
	MovingTime       int     `json:"moving_time"`
	AverageHeartRate float64 `json:"average_heartrate"`
}

// FetchRecentActivities pulls the athlete's latest activities, newest
// pages first, bounded by the configured page count.
func (c *client) FetchRecentActivities(ctx context.Context) ([]domain.Activity, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	maxPages := c.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 4
	}

	var activities []domain.Activity
	for page := 1; page <= maxPages; page++ {
		batch, err := c.fetchPage(ctx, token, page, pageSize)
		if err != nil {
			return nil, err
		}
		activities = append(activities, batch...)
		if len(batch) < pageSize {
			break // Last page reached
		}
	}
	return activities, nil
}

func (c *client) fetchPage(ctx context.Context, token string, page, pageSize int) ([]domain.Activity, error) {
	endpoint := fmt.Sprintf("%s/api/v3/athlete/activities?page=%d&per_page=%d", c.baseURL, page, pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("activity sync request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("activity sync rate limited (status 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("activity sync returned status %d", resp.StatusCode)
	}

	var raw []apiActivity
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("activity sync response did not parse: %w", err)
	}

	activities := make([]domain.Activity, 0, len(raw))
	for _, a := range raw {
		start, err := time.Parse(time.RFC3339, a.StartDate)
		if err != nil {
			log.Printf("WARN: Skipping activity %d with bad start date %q", a.ID, a.StartDate)
			continue
		}
		activities = append(activities, domain.Activity{
			ID:           strconv.FormatInt(a.ID, 10),
			Name:         a.Name,
			SportType:    a.SportType,
			StartTime:    start,
			DistanceM:    a.Distance,
			MovingTimeS:  a.MovingTime,
			AvgHeartRate: a.AverageHeartRate,
		})
	}
	return activities, nil
}

// token returns a valid access token, refreshing it via the OAuth
// refresh-token grant when the cached one is missing or about to expire.
func (c *client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.expiresAt) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.cfg.RefreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("token refresh response did not parse: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token refresh returned no access token")
	}

	c.accessToken = tok.AccessToken
	c.expiresAt = time.Unix(tok.ExpiresAt, 0)
	return c.accessToken, nil
}
