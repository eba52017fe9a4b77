package youtube

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

const sampleUploadsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/"
      xmlns="http://www.w3.org/2005/Atom">
  <title>Test Channel</title>
  <entry>
    <id>yt:video:vid-newest</id>
    <yt:videoId>vid-newest</yt:videoId>
    <title>Newest upload</title>
    <published>2025-06-03T10:00:00+00:00</published>
  </entry>
  <entry>
    <id>yt:video:vid-older</id>
    <yt:videoId>vid-older</yt:videoId>
    <title>Older upload</title>
    <published>2025-06-01T10:00:00+00:00</published>
  </entry>
</feed>`

type stubTransport struct {
	statusCode int
	body       string
	gotURL     string
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.gotURL = req.URL.String()
	return &http.Response{
		StatusCode: s.statusCode,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     make(http.Header),
	}, nil
}

func newStubRSSFetcher(statusCode int, body string) (*RSSFetcher, *stubTransport) {
	transport := &stubTransport{statusCode: statusCode, body: body}
	fetcher := NewRSSFetcher()
	fetcher.parser.Client = &http.Client{Transport: transport}
	fetcher.RetryConfig.MaxRetries = 0
	return fetcher, transport
}

func TestRSSFetcherLatestVideos(t *testing.T) {
	fetcher, transport := newStubRSSFetcher(http.StatusOK, sampleUploadsFeed)

	videos, err := fetcher.LatestVideos(context.Background(), "UCtest", 10)
	if err != nil {
		t.Fatalf("LatestVideos() error = %v", err)
	}
	if !strings.Contains(transport.gotURL, "channel_id=UCtest") {
		t.Errorf("feed URL = %q, want channel_id query", transport.gotURL)
	}
	if len(videos) != 2 {
		t.Fatalf("len(videos) = %d, want 2", len(videos))
	}
	v := videos[0]
	if v.ID != "vid-newest" {
		t.Errorf("ID = %q, want vid-newest", v.ID)
	}
	if v.ChannelTitle != "Test Channel" {
		t.Errorf("ChannelTitle = %q", v.ChannelTitle)
	}
	if v.Published.IsZero() {
		t.Error("Published not parsed")
	}
	if v.Duration != 0 || v.Views != 0 {
		t.Error("feed entries should carry zero duration and views")
	}
}

func TestRSSFetcherLimitsCount(t *testing.T) {
	fetcher, _ := newStubRSSFetcher(http.StatusOK, sampleUploadsFeed)

	videos, err := fetcher.LatestVideos(context.Background(), "UCtest", 1)
	if err != nil {
		t.Fatalf("LatestVideos() error = %v", err)
	}
	if len(videos) != 1 || videos[0].ID != "vid-newest" {
		t.Errorf("videos = %+v, want only the newest entry", videos)
	}
}

func TestRSSFetcherFeedError(t *testing.T) {
	fetcher, _ := newStubRSSFetcher(http.StatusNotFound, "not found")

	_, err := fetcher.LatestVideos(context.Background(), "UCmissing", 10)
	if err == nil {
		t.Fatal("expected error for missing feed")
	}
}
