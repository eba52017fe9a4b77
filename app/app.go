// Package app wires the fetchers, the category engine, and the two storage
// tiers into one controller the frontends drive.
package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"mytubes/agent"
	"mytubes/category"
	"mytubes/config"
	"mytubes/internal/logging"
	"mytubes/persist"
	"mytubes/storage"
	"mytubes/youtube"
)

// Local cache keys for fetched data.
const (
	subscriptionsCacheKey = "mytubes_subscriptions"
	videosCacheKey        = "mytubes_videos"
)

// maxConcurrentFetches bounds the per-channel video fan-out.
const maxConcurrentFetches = 8

// Renderer receives state updates after loads and mutations. Frontends
// implement it; tests stub it.
type Renderer interface {
	RenderSubscriptions(subs []youtube.Subscription, col *category.Collection)
	RenderVideos(videos []youtube.Video)
}

// App owns the in-memory state and coordinates fetching, categorization,
// and persistence. Methods are safe for a single caller goroutine; the
// video fan-out parallelizes internally.
type App struct {
	cfg      *config.Config
	cache    *storage.FileCache
	coord    *persist.Coordinator
	fetcher  youtube.Fetcher
	rss      *youtube.RSSFetcher
	renderer Renderer

	chat *agent.Client
	conv *agent.Conversation

	mu            sync.Mutex
	subscriptions []youtube.Subscription
	videos        []youtube.Video
	collection    *category.Collection
}

// New assembles the controller. The RSS fallback and chat client are
// optional; set them with SetRSSFallback and SetChatClient.
func New(cfg *config.Config, cache *storage.FileCache, coord *persist.Coordinator, fetcher youtube.Fetcher, renderer Renderer) *App {
	return &App{
		cfg:        cfg,
		cache:      cache,
		coord:      coord,
		fetcher:    fetcher,
		renderer:   renderer,
		collection: category.NewCollection(),
	}
}

// SetRSSFallback enables the public-feed fallback for channels whose
// uploads playlist cannot be fetched.
func (a *App) SetRSSFallback(rss *youtube.RSSFetcher) {
	a.rss = rss
}

// SetChatClient enables the category management chat.
func (a *App) SetChatClient(client *agent.Client) {
	a.chat = client
	a.conv = agent.NewConversation(client)
}

// Collection exposes the live category collection.
func (a *App) Collection() *category.Collection {
	return a.collection
}

// Subscriptions returns the current subscription list.
func (a *App) Subscriptions() []youtube.Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.subscriptions
}

// Videos returns the current video feed, newest first.
func (a *App) Videos() []youtube.Video {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.videos
}

// LoadEverything brings the full state up: categories from the two-tier
// store, then subscriptions and videos from cache or, when the cache
// misses, from the API.
func (a *App) LoadEverything(ctx context.Context) error {
	a.coord.Load(ctx, a.collection)

	var cachedSubs []youtube.Subscription
	if a.cache.GetJSON(subscriptionsCacheKey, &cachedSubs) {
		a.mu.Lock()
		a.subscriptions = cachedSubs
		a.mu.Unlock()
		logging.Debug("subscriptions served from cache", "count", len(cachedSubs))
	} else if err := a.SyncSubscriptions(ctx); err != nil {
		return fmt.Errorf("sync subscriptions: %w", err)
	}

	var cachedVideos []youtube.Video
	if a.cache.GetJSON(videosCacheKey, &cachedVideos) {
		a.mu.Lock()
		a.videos = cachedVideos
		a.mu.Unlock()
		logging.Debug("videos served from cache", "count", len(cachedVideos))
		a.render()
	} else if err := a.RefreshVideos(ctx); err != nil {
		return fmt.Errorf("refresh videos: %w", err)
	}
	return nil
}

// SyncSubscriptions fetches the subscription list and channel details from
// the API, caches the merged result, and auto-categorizes on first run.
func (a *App) SyncSubscriptions(ctx context.Context) error {
	subs, err := a.fetcher.Subscriptions(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.ChannelID
	}
	details, err := a.fetcher.ChannelDetails(ctx, ids)
	if err != nil {
		return err
	}
	for i := range subs {
		if d, ok := details[subs[i].ChannelID]; ok {
			subs[i].UploadsPlaylistID = d.UploadsPlaylistID
			subs[i].TopicURLs = d.TopicURLs
		}
	}

	a.mu.Lock()
	a.subscriptions = subs
	a.mu.Unlock()

	if err := a.cache.Set(subscriptionsCacheKey, subs, a.cfg.SubscriptionsTTL); err != nil {
		logging.Warn("caching subscriptions failed", "err", err)
	}
	logging.Info("subscriptions synced", "count", len(subs))

	// First run with no categories yet: seed them from channel topics.
	if a.collection.IsEmpty() {
		topics := make([]category.ChannelTopics, len(subs))
		for i, s := range subs {
			topics[i] = category.ChannelTopics{ChannelID: s.ChannelID, TopicURLs: s.TopicURLs}
		}
		category.AutoSuggest(a.collection, topics)
		a.coord.Save(a.collection)
		logging.Info("auto-categorized subscriptions", "categories", len(a.collection.Categories))
	}

	a.render()
	return nil
}

// RefreshVideos fetches recent uploads for every subscription in parallel,
// resolves details, drops Shorts unless configured otherwise, and caches
// the sorted feed.
func (a *App) RefreshVideos(ctx context.Context) error {
	subs := a.Subscriptions()

	var mu sync.Mutex
	var fetched []youtube.Video

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for _, sub := range subs {
		g.Go(func() error {
			videos, err := a.channelVideos(ctx, sub)
			if err != nil {
				logging.Warn("skipping channel videos", "channel", sub.Title, "err", err)
				return nil
			}
			mu.Lock()
			fetched = append(fetched, videos...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Playlists can overlap after channel merges; keep each video once.
	seen := make(map[string]bool, len(fetched))
	unique := fetched[:0]
	var ids []string
	for _, v := range fetched {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		unique = append(unique, v)
		ids = append(ids, v.ID)
	}

	details, err := a.fetcher.VideoDetails(ctx, ids)
	if err != nil {
		return err
	}
	for i := range unique {
		if d, ok := details[unique[i].ID]; ok {
			unique[i].Duration = d.Duration
			unique[i].Views = d.Views
		}
	}

	if !a.cfg.IncludeShorts {
		unique = youtube.FilterShorts(unique)
	}
	youtube.SortNewestFirst(unique)

	a.mu.Lock()
	a.videos = unique
	a.mu.Unlock()

	if err := a.cache.Set(videosCacheKey, unique, a.cfg.VideosTTL); err != nil {
		logging.Warn("caching videos failed", "err", err)
	}
	logging.Info("videos refreshed", "count", len(unique))

	a.render()
	return nil
}

// channelVideos lists one channel's recent uploads, falling back to the
// public feed when the playlist fetch fails.
func (a *App) channelVideos(ctx context.Context, sub youtube.Subscription) ([]youtube.Video, error) {
	videos, err := a.fetcher.LatestVideos(ctx, sub.UploadsPlaylistID, a.cfg.VideosPerChannel)
	if err == nil {
		return videos, nil
	}
	if a.rss == nil {
		return nil, err
	}
	logging.Debug("falling back to uploads feed", "channel", sub.Title, "err", err)
	return a.rss.LatestVideos(ctx, sub.ChannelID, a.cfg.VideosPerChannel)
}

// CreateCategory adds a category and persists the change.
func (a *App) CreateCategory(name string) *category.Category {
	cat := a.collection.Ensure(name)
	a.saveAndRender()
	return cat
}

// DeleteCategory removes a category; its members become uncategorized.
func (a *App) DeleteCategory(id string) bool {
	ok := a.collection.Delete(id)
	if ok {
		a.saveAndRender()
	}
	return ok
}

// RenameCategory changes a category's display name, keeping its ID.
func (a *App) RenameCategory(id, newName string) bool {
	ok := a.collection.Rename(id, newName)
	if ok {
		a.saveAndRender()
	}
	return ok
}

// AssignChannel moves a channel into the given category, or clears its
// assignment when categoryID is the uncategorized sentinel.
func (a *App) AssignChannel(channelID, categoryID string) {
	a.collection.Assign(channelID, categoryID)
	a.saveAndRender()
}

// Chat sends one user message to the model and applies whatever actions it
// returns. It reports the model's explanation plus one result line per
// executed action.
func (a *App) Chat(ctx context.Context, userText string) (explanation string, results []string, err error) {
	if a.conv == nil {
		return "", nil, fmt.Errorf("chat is not configured")
	}

	channels := make([]agent.ChannelInfo, len(a.Subscriptions()))
	for i, s := range a.Subscriptions() {
		channels[i] = agent.ChannelInfo{ID: s.ChannelID, Title: s.Title}
	}

	reply, err := a.conv.Send(ctx, userText, a.collection, channels)
	if err != nil {
		return "", nil, err
	}

	explanation = agent.ExtractExplanation(reply)
	cmds := agent.ParseActions(reply)
	if len(cmds) == 0 {
		return explanation, nil, nil
	}

	exec := &agent.Executor{
		Collection: a.collection,
		Save:       func() { a.coord.Save(a.collection) },
		Refresh:    a.render,
	}
	return explanation, exec.Execute(cmds), nil
}

// ClearCache drops cached subscriptions and videos so the next load hits
// the API. Categories are not touched.
func (a *App) ClearCache() {
	if err := a.cache.Remove(subscriptionsCacheKey); err != nil {
		logging.Warn("clearing subscription cache failed", "err", err)
	}
	if err := a.cache.Remove(videosCacheKey); err != nil {
		logging.Warn("clearing video cache failed", "err", err)
	}
}

// Resync drops the caches and refetches everything.
func (a *App) Resync(ctx context.Context) error {
	a.ClearCache()
	if err := a.SyncSubscriptions(ctx); err != nil {
		return err
	}
	return a.RefreshVideos(ctx)
}

// Close flushes any pending category write and releases storage.
func (a *App) Close(ctx context.Context) error {
	if err := a.coord.Flush(ctx); err != nil {
		logging.Warn("flushing categories failed", "err", err)
	}
	a.coord.Close()
	return a.cache.Close()
}

func (a *App) saveAndRender() {
	a.coord.Save(a.collection)
	a.render()
}

func (a *App) render() {
	if a.renderer == nil {
		return
	}
	a.renderer.RenderSubscriptions(a.Subscriptions(), a.collection)
	a.renderer.RenderVideos(a.Videos())
}
