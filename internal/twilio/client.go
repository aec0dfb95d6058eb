package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIBaseURL is the Twilio REST API base URL.
const DefaultAPIBaseURL = "https://api.twilio.com/2010-04-01"

type ClientConfig struct {
	AccountSID string
	AuthToken  string
	APIBaseURL string
	Timeout    time.Duration
}

// Client is the narrow carrier interface this service needs: fetch a call
// recording and place an outbound call.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchRecording downloads the audio behind a RecordingUrl callback value.
func (c *Client) FetchRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	if strings.TrimSpace(recordingURL) == "" {
		return nil, fmt.Errorf("recording url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch recording: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch recording: status %d", res.StatusCode)
	}
	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read recording body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("recording body is empty")
	}
	return audio, nil
}

// CreateCall places an outbound call that will hit webhookURL for its TwiML.
func (c *Client) CreateCall(ctx context.Context, to, from, webhookURL string) (string, error) {
	if strings.TrimSpace(to) == "" || strings.TrimSpace(from) == "" {
		return "", fmt.Errorf("to and from numbers are required")
	}
	if strings.TrimSpace(webhookURL) == "" {
		return "", fmt.Errorf("webhook url is required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Url", webhookURL)
	form.Set("Method", "POST")

	endpoint := strings.TrimRight(c.cfg.APIBaseURL, "/") + "/Accounts/" + url.PathEscape(c.cfg.AccountSID) + "/Calls.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create call: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("create call: status %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode create call response: %w", err)
	}
	if payload.SID == "" {
		return "", fmt.Errorf("create call response missing sid")
	}
	return payload.SID, nil
}
