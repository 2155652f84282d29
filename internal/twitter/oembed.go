package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"layeredge/internal/interfaces"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/sirupsen/logrus"
)

const (
	DefaultOEmbedBaseURL = "https://publish.twitter.com"

	oembedTimeout = 5 * time.Second
)

// OEmbedClient reads the public embed document. No authentication, no
// per-app quota, but only text and author come back, never counts.
type OEmbedClient struct {
	baseURL string
	http    *httpclient.Client
	logger  *logrus.Logger
}

func NewOEmbedClient(baseURL string, logger *logrus.Logger) *OEmbedClient {
	if baseURL == "" {
		baseURL = DefaultOEmbedBaseURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	backoff := heimdall.NewExponentialBackoff(time.Second, 10*time.Second, 2.0, 200*time.Millisecond)
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(oembedTimeout),
		httpclient.WithRetryCount(2),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
	)

	return &OEmbedClient{baseURL: baseURL, http: client, logger: logger}
}

func (c *OEmbedClient) Name() string {
	return "oembed"
}

type oembedResponse struct {
	AuthorName string `json:"author_name"`
	AuthorURL  string `json:"author_url"`
	HTML       string `json:"html"`
}

var (
	reEmbedText = regexp.MustCompile(`(?s)<p[^>]*>(.*?)</p>`)
	reEmbedTag  = regexp.MustCompile(`<[^>]+>`)
)

// FetchTweet resolves author and text from the embed HTML. Counts stay
// at zero with HasCounts false.
func (c *OEmbedClient) FetchTweet(ctx context.Context, tweetID string) (*interfaces.TweetDetail, error) {
	log := c.logger.WithFields(logrus.Fields{
		"method":   "FetchTweet",
		"source":   c.Name(),
		"tweet_id": tweetID,
	})

	// the endpoint only accepts full status URLs; the handle segment is
	// ignored by the upstream resolver
	statusURL := fmt.Sprintf("https://twitter.com/i/status/%s", tweetID)
	endpoint := fmt.Sprintf("%s/oembed?url=%s&omit_script=true", c.baseURL, url.QueryEscape(statusURL))

	resp, err := c.http.Get(endpoint, http.Header{})
	if err != nil {
		log.WithError(err).Warn("oembed request failed")
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		log.WithField("status", resp.StatusCode).Warn("oembed rejected request")
		return nil, err
	}

	var body oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &NetworkError{Err: err}
	}

	return &interfaces.TweetDetail{
		TweetID:        tweetID,
		AuthorUsername: UsernameFromAuthorURL(body.AuthorURL),
		Text:           ExtractEmbedText(body.HTML),
		HasCounts:      false,
	}, nil
}

// ExtractEmbedText pulls the tweet body out of the embed blockquote.
func ExtractEmbedText(html string) string {
	m := reEmbedText.FindStringSubmatch(html)
	if m == nil {
		return ""
	}

	text := reEmbedTag.ReplaceAllString(m[1], "")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")

	return strings.TrimSpace(text)
}
