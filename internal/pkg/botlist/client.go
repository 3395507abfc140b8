// Package botlist talks to the bot-list service that tracks votes and the weekend multiplier window.
package botlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

const DEFAULT_BASE_URL = "https://top.gg/api"

type Client struct {
	baseURL string
	token   string
	botID   string
	http    *httpclient.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(client *httpclient.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

func NewClient(token string, botID string, opts ...Option) *Client {
	backoff := heimdall.NewConstantBackoff(100*time.Millisecond, 50*time.Millisecond)
	c := &Client{
		baseURL: DEFAULT_BASE_URL,
		token:   token,
		botID:   botID,
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(3*time.Second),
			httpclient.WithRetryCount(2),
			httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type voteResponse struct {
	Voted int `json:"voted"`
}

type weekendResponse struct {
	IsWeekend bool `json:"is_weekend"`
}

func (c *Client) HasVoted(ctx context.Context, accountID int64) (bool, error) {
	url := fmt.Sprintf("%s/bots/%s/check?userId=%s", c.baseURL, c.botID, strconv.FormatInt(accountID, 10))

	var v voteResponse
	if err := c.getJSON(ctx, url, &v); err != nil {
		return false, err
	}

	return v.Voted == 1, nil
}

func (c *Client) IsWeekend(ctx context.Context) (bool, error) {
	var v weekendResponse
	if err := c.getJSON(ctx, c.baseURL+"/weekend", &v); err != nil {
		return false, err
	}

	return v.IsWeekend, nil
}

func (c *Client) getJSON(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("botlist: %s returned %d", req.URL.Path, res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(target)
}
