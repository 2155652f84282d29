package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"layeredge/internal/interfaces"
	"layeredge/internal/models"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAPIBaseURL = "https://api.twitter.com"

	apiTimeout          = 10 * time.Second
	apiRetryCount       = 3
	apiBackoffInitial   = 2 * time.Second
	apiBackoffMax       = 30 * time.Second
	apiBackoffExponent  = 2.0
	apiBackoffJitterMax = 500 * time.Millisecond
)

// Client talks to the authenticated counts API. Precise numbers,
// tight rate limits.
type Client struct {
	baseURL     string
	bearerToken string
	http        *httpclient.Client
	logger      *logrus.Logger
}

func NewClient(baseURL string, bearerToken string, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	backoff := heimdall.NewExponentialBackoff(apiBackoffInitial, apiBackoffMax, apiBackoffExponent, apiBackoffJitterMax)
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(apiTimeout),
		httpclient.WithRetryCount(apiRetryCount),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
	)

	return &Client{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		http:        client,
		logger:      logger,
	}
}

func (c *Client) Name() string {
	return "api"
}

type tweetLookupResponse struct {
	Data *struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		AuthorID      string `json:"author_id"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
			LikeCount    int `json:"like_count"`
			QuoteCount   int `json:"quote_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// FetchTweet looks up a single tweet with its public metrics.
func (c *Client) FetchTweet(ctx context.Context, tweetID string) (*interfaces.TweetDetail, error) {
	log := c.logger.WithFields(logrus.Fields{
		"method":   "FetchTweet",
		"source":   c.Name(),
		"tweet_id": tweetID,
	})

	endpoint := fmt.Sprintf(
		"%s/2/tweets/%s?tweet.fields=public_metrics&expansions=author_id&user.fields=username",
		c.baseURL, tweetID,
	)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.bearerToken)
	headers.Set("Accept", "application/json")

	resp, err := c.http.Get(endpoint, headers)
	if err != nil {
		log.WithError(err).Warn("counts api request failed")
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		log.WithField("status", resp.StatusCode).Warn("counts api rejected request")
		return nil, err
	}

	var body tweetLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &NetworkError{Err: err}
	}

	if body.Data == nil {
		// deleted or protected tweets come back 200 with an errors array
		return nil, ErrNotFound
	}

	detail := &interfaces.TweetDetail{
		TweetID: body.Data.ID,
		Text:    body.Data.Text,
		Engagement: models.Engagement{
			Likes:    body.Data.PublicMetrics.LikeCount,
			Retweets: body.Data.PublicMetrics.RetweetCount,
			Replies:  body.Data.PublicMetrics.ReplyCount,
		},
		HasCounts: true,
	}

	for _, user := range body.Includes.Users {
		if user.ID == body.Data.AuthorID {
			detail.AuthorUsername = user.Username
			break
		}
	}

	return detail, nil
}

func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Reset: parseRateLimitReset(resp)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return &NetworkError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
}

// parseRateLimitReset reads the x-rate-limit-reset header, a unix epoch.
// Falls back to a whole window when the header is missing.
func parseRateLimitReset(resp *http.Response) time.Time {
	raw := resp.Header.Get("x-rate-limit-reset")
	if raw != "" {
		if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return time.Unix(epoch, 0)
		}
	}

	return time.Now().Add(15 * time.Minute)
}
