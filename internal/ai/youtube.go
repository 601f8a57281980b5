package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const oembedURL = "https://www.youtube.com/oembed"

// Video is the oEmbed metadata of a YouTube video.
type Video struct {
	ID     string `json:"-"`
	Title  string `json:"title"`
	Author string `json:"author_name"`
}

// YouTube looks up video metadata through the public oEmbed endpoint.
type YouTube struct {
	endpoint string
	client   *http.Client
}

// NewYouTube returns a client for youtube.com's oEmbed endpoint.
func NewYouTube() *YouTube {
	return &YouTube{endpoint: oembedURL, client: &http.Client{Timeout: 10 * time.Second}}
}

// Lookup fetches the metadata of a video.
func (y *YouTube) Lookup(ctx context.Context, videoID string) (*Video, error) {
	q := url.Values{}
	q.Set("url", "https://www.youtube.com/watch?v="+videoID)
	q.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; topicreader)")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oembed request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed returned status %d for video %s", resp.StatusCode, videoID)
	}
	v := &Video{ID: videoID}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return nil, fmt.Errorf("decoding oembed response: %w", err)
	}
	if v.Title == "" {
		return nil, fmt.Errorf("oembed returned no title for video %s", videoID)
	}
	return v, nil
}
