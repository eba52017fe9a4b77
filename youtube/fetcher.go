// Package youtube fetches subscription, channel, and video data from the
// YouTube Data API v3, with an RSS fallback for upload listings.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtubev3 "google.golang.org/api/youtube/v3"

	"mytubes/internal/retry"
)

// ErrAuthExpired signals that the OAuth token was rejected and the caller
// must obtain a fresh one before retrying.
var ErrAuthExpired = errors.New("youtube: authentication expired")

// maxIDsPerCall is the API's cap on comma-joined IDs in a single list call.
const maxIDsPerCall = 50

// Subscription is one channel the authenticated user is subscribed to.
type Subscription struct {
	ChannelID   string
	Title       string
	Description string
	Thumbnail   string

	// Filled in by ChannelDetails
	UploadsPlaylistID string
	TopicURLs         []string
}

// Video is a single upload with the detail fields the views need.
type Video struct {
	ID           string
	ChannelID    string
	ChannelTitle string
	Title        string
	Thumbnail    string
	Published    time.Time
	Duration     time.Duration
	Views        uint64
}

// WatchURL returns the standard watch page for the video.
func (v Video) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Fetcher is the read side of the YouTube API that the app depends on.
type Fetcher interface {
	// Subscriptions lists every channel the user is subscribed to.
	Subscriptions(ctx context.Context) ([]Subscription, error)

	// ChannelDetails resolves uploads playlists and topic URLs for the
	// given channel IDs.
	ChannelDetails(ctx context.Context, ids []string) (map[string]Subscription, error)

	// LatestVideos lists the most recent n uploads of a playlist.
	LatestVideos(ctx context.Context, playlistID string, n int) ([]Video, error)

	// VideoDetails resolves duration and view counts for the given video IDs.
	VideoDetails(ctx context.Context, ids []string) (map[string]Video, error)
}

// APIFetcher implements Fetcher over the YouTube Data API v3.
type APIFetcher struct {
	service     *youtubev3.Service
	limiter     *rate.Limiter
	RetryConfig retry.Config
}

// NewAPIFetcher builds a fetcher authenticated by the given token source.
func NewAPIFetcher(ctx context.Context, ts oauth2.TokenSource) (*APIFetcher, error) {
	service, err := youtubev3.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return NewAPIFetcherWithService(service), nil
}

// NewAPIFetcherWithService wraps an existing service, mainly for tests.
func NewAPIFetcherWithService(service *youtubev3.Service) *APIFetcher {
	return &APIFetcher{
		service:     service,
		limiter:     rate.NewLimiter(rate.Limit(8), 4),
		RetryConfig: retry.DefaultConfig(),
	}
}

// Subscriptions pages through the full subscription list in alphabetical
// order, 50 entries per page.
func (f *APIFetcher) Subscriptions(ctx context.Context) ([]Subscription, error) {
	var subs []Subscription
	pageToken := ""
	for {
		var resp *youtubev3.SubscriptionListResponse
		err := f.do(ctx, func(ctx context.Context) error {
			call := f.service.Subscriptions.List([]string{"snippet"}).
				Mine(true).
				MaxResults(maxIDsPerCall).
				Order("alphabetical").
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			resp, err = call.Do()
			return mapAPIError(err)
		})
		if err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}

		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil {
				continue
			}
			subs = append(subs, Subscription{
				ChannelID:   item.Snippet.ResourceId.ChannelId,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				Thumbnail:   bestThumbnail(item.Snippet.Thumbnails),
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return subs, nil
		}
	}
}

// ChannelDetails fetches uploads playlists and topic categories for the
// given channels, batching requests at the API's 50-ID limit.
func (f *APIFetcher) ChannelDetails(ctx context.Context, ids []string) (map[string]Subscription, error) {
	details := make(map[string]Subscription, len(ids))
	for _, batch := range batchIDs(ids, maxIDsPerCall) {
		var resp *youtubev3.ChannelListResponse
		err := f.do(ctx, func(ctx context.Context) error {
			var err error
			resp, err = f.service.Channels.
				List([]string{"snippet", "contentDetails", "topicDetails"}).
				Id(batch...).
				MaxResults(maxIDsPerCall).
				Context(ctx).
				Do()
			return mapAPIError(err)
		})
		if err != nil {
			return nil, fmt.Errorf("list channels: %w", err)
		}

		for _, ch := range resp.Items {
			d := Subscription{ChannelID: ch.Id}
			if ch.Snippet != nil {
				d.Title = ch.Snippet.Title
				d.Description = ch.Snippet.Description
				d.Thumbnail = bestThumbnail(ch.Snippet.Thumbnails)
			}
			if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
				d.UploadsPlaylistID = ch.ContentDetails.RelatedPlaylists.Uploads
			}
			if ch.TopicDetails != nil {
				d.TopicURLs = ch.TopicDetails.TopicCategories
			}
			details[ch.Id] = d
		}
	}
	return details, nil
}

// LatestVideos lists the newest n items of an uploads playlist. The returned
// videos carry snippet data only; call VideoDetails for durations and views.
func (f *APIFetcher) LatestVideos(ctx context.Context, playlistID string, n int) ([]Video, error) {
	if n <= 0 || n > maxIDsPerCall {
		n = maxIDsPerCall
	}
	var resp *youtubev3.PlaylistItemListResponse
	err := f.do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = f.service.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(playlistID).
			MaxResults(int64(n)).
			Context(ctx).
			Do()
		return mapAPIError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		sn := item.Snippet
		if sn == nil || sn.ResourceId == nil || sn.ResourceId.VideoId == "" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, sn.PublishedAt)
		videos = append(videos, Video{
			ID:           sn.ResourceId.VideoId,
			ChannelID:    sn.ChannelId,
			ChannelTitle: sn.ChannelTitle,
			Title:        sn.Title,
			Thumbnail:    bestThumbnail(sn.Thumbnails),
			Published:    published,
		})
	}
	return videos, nil
}

// VideoDetails resolves durations and view counts, batching at 50 IDs.
func (f *APIFetcher) VideoDetails(ctx context.Context, ids []string) (map[string]Video, error) {
	details := make(map[string]Video, len(ids))
	for _, batch := range batchIDs(ids, maxIDsPerCall) {
		var resp *youtubev3.VideoListResponse
		err := f.do(ctx, func(ctx context.Context) error {
			var err error
			resp, err = f.service.Videos.
				List([]string{"snippet", "contentDetails", "statistics"}).
				Id(batch...).
				MaxResults(maxIDsPerCall).
				Context(ctx).
				Do()
			return mapAPIError(err)
		})
		if err != nil {
			return nil, fmt.Errorf("list videos: %w", err)
		}

		for _, item := range resp.Items {
			v := Video{ID: item.Id}
			if item.Snippet != nil {
				v.ChannelID = item.Snippet.ChannelId
				v.ChannelTitle = item.Snippet.ChannelTitle
				v.Title = item.Snippet.Title
				v.Thumbnail = bestThumbnail(item.Snippet.Thumbnails)
				v.Published, _ = time.Parse(time.RFC3339, item.Snippet.PublishedAt)
			}
			if item.ContentDetails != nil {
				v.Duration, _ = ParseISO8601Duration(item.ContentDetails.Duration)
			}
			if item.Statistics != nil {
				v.Views = item.Statistics.ViewCount
			}
			details[item.Id] = v
		}
	}
	return details, nil
}

// do runs one API call under the rate limiter with retries.
func (f *APIFetcher) do(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, f.RetryConfig, apiErrorClassifier, func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// mapAPIError converts a 401 into the auth sentinel and passes the rest
// through unchanged.
func mapAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}
	return err
}

// apiErrorClassifier never retries an expired token.
func apiErrorClassifier(err error) bool {
	if errors.Is(err, ErrAuthExpired) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return retry.IsRetryable(err)
}

// batchIDs splits ids into chunks of at most size.
func batchIDs(ids []string, size int) [][]string {
	var batches [][]string
	for len(ids) > size {
		batches = append(batches, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		batches = append(batches, ids)
	}
	return batches
}

// bestThumbnail picks the highest-quality thumbnail available.
func bestThumbnail(t *youtubev3.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, candidate := range []*youtubev3.Thumbnail{t.High, t.Medium, t.Default} {
		if candidate != nil && candidate.Url != "" {
			return candidate.Url
		}
	}
	return ""
}
