package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"mytubes/internal/retry"
)

const uploadsFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// RSSFetcher lists recent uploads from a channel's public Atom feed. The
// feed needs no authentication but only carries the 15 most recent videos,
// so it serves as a fallback when a playlist fetch fails.
type RSSFetcher struct {
	parser      *gofeed.Parser
	RetryConfig retry.Config
}

// NewRSSFetcher builds a feed-backed fetcher with a 30 second timeout.
func NewRSSFetcher() *RSSFetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	return &RSSFetcher{
		parser:      parser,
		RetryConfig: retry.DefaultConfig(),
	}
}

// LatestVideos fetches the channel's uploads feed and returns up to n
// entries. Durations and view counts are not present in the feed, so the
// returned videos report zero for both.
func (r *RSSFetcher) LatestVideos(ctx context.Context, channelID string, n int) ([]Video, error) {
	var feed *gofeed.Feed
	err := retry.Do(ctx, r.RetryConfig, retry.IsRetryable, func(ctx context.Context) error {
		var err error
		feed, err = r.parser.ParseURLWithContext(fmt.Sprintf(uploadsFeedURL, channelID), ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch uploads feed for %s: %w", channelID, err)
	}

	videos := make([]Video, 0, len(feed.Items))
	for _, item := range feed.Items {
		if n > 0 && len(videos) >= n {
			break
		}
		v := Video{
			ID:           feedVideoID(item),
			ChannelID:    channelID,
			ChannelTitle: feed.Title,
			Title:        item.Title,
		}
		if item.PublishedParsed != nil {
			v.Published = *item.PublishedParsed
		}
		if item.Image != nil {
			v.Thumbnail = item.Image.URL
		}
		if v.ID != "" {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

// feedVideoID extracts the video ID from a feed entry. Entries carry it in
// the yt:videoId extension and in the GUID ("yt:video:ID").
func feedVideoID(item *gofeed.Item) string {
	if exts, ok := item.Extensions["yt"]; ok {
		if ids, ok := exts["videoId"]; ok && len(ids) > 0 {
			return ids[0].Value
		}
	}
	if id, ok := strings.CutPrefix(item.GUID, "yt:video:"); ok {
		return id
	}
	return ""
}
