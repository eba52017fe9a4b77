package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/oauth2"

	"mytubes/agent"
	"mytubes/app"
	"mytubes/category"
	"mytubes/config"
	"mytubes/drive"
	"mytubes/internal/logging"
	"mytubes/persist"
	"mytubes/storage"
	"mytubes/youtube"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "feed":
		cmdFeed(args)
	case "channels":
		cmdChannels(args)
	case "categories":
		cmdCategories(args)
	case "assign":
		cmdAssign(args)
	case "sync":
		cmdSync(args)
	case "chat":
		cmdChat(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `mytubes - categorized YouTube subscription feed

Usage:
  mytubes feed [flags]                 Show the latest videos from your subscriptions
  mytubes channels [flags]             List subscriptions and their categories
  mytubes categories [flags]           List or edit categories
  mytubes assign <channel-id> <category-id>   Move a channel into a category
  mytubes sync                         Drop caches and refetch everything
  mytubes chat <message>               Manage categories through the AI assistant
  mytubes help                         Show this help message

Authentication:
  Set MYTUBES_ACCESS_TOKEN to an OAuth token with the youtube.readonly and
  drive.appdata scopes. Set MYTUBES_AGENT_KEY to an OpenRouter key for chat.

Examples:
  mytubes feed --category woodworking
  mytubes categories --create "Synth DIY"
  mytubes assign UCxxxx synth-diy
  mytubes chat "group my music channels together"
`)
}

// buildApp assembles the controller from config and environment.
func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	token := os.Getenv("MYTUBES_ACCESS_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("MYTUBES_ACCESS_TOKEN is not set")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})

	cache, err := storage.NewFileCache(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	remote, err := drive.NewStore(ctx, ts)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("connect remote store: %w", err)
	}

	fetcher, err := youtube.NewAPIFetcher(ctx, ts)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("connect youtube: %w", err)
	}

	coord := persist.New(cache, remote, persist.Options{
		DocumentName: cfg.CategoriesFile,
		Debounce:     cfg.SaveDebounce,
	})

	a := app.New(cfg, cache, coord, fetcher, quietRenderer{})
	a.SetRSSFallback(youtube.NewRSSFetcher())
	if cfg.AgentKey != "" {
		a.SetChatClient(agent.NewClient(cfg.AgentKey, cfg.AgentModel))
	}
	return a, nil
}

// quietRenderer satisfies app.Renderer; commands print their own output.
type quietRenderer struct{}

func (quietRenderer) RenderSubscriptions([]youtube.Subscription, *category.Collection) {}
func (quietRenderer) RenderVideos([]youtube.Video)                                     {}

func cmdFeed(args []string) {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	categoryID := fs.String("category", "", "Only show channels in this category")
	maxVideos := fs.Int("max", 30, "Maximum videos to show")
	refresh := fs.Bool("refresh", false, "Refetch videos instead of using the cache")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(args)
	logging.SetVerbose(*verbose)

	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		fatal(err)
	}
	defer a.Close(ctx)

	if err := a.LoadEverything(ctx); err != nil {
		fatal(err)
	}
	if *refresh {
		a.ClearCache()
		if err := a.RefreshVideos(ctx); err != nil {
			fatal(err)
		}
	}

	// Resolve which channels are in scope when filtering by category.
	var inScope map[string]bool
	if *categoryID != "" {
		cat := a.Collection().ByID(*categoryID)
		if cat == nil {
			fatal(fmt.Errorf("category %q not found", *categoryID))
		}
		inScope = make(map[string]bool, len(cat.ChannelIDs))
		for _, id := range cat.ChannelIDs {
			inScope[id] = true
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PUBLISHED\tDURATION\tVIEWS\tCHANNEL\tTITLE")
	shown := 0
	for _, v := range a.Videos() {
		if inScope != nil && !inScope[v.ChannelID] {
			continue
		}
		if shown >= *maxVideos {
			break
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.Published.Local().Format("2006-01-02 15:04"),
			youtube.FormatDuration(v.Duration),
			youtube.FormatViews(v.Views),
			v.ChannelTitle,
			v.Title)
		shown++
	}
	w.Flush()
}

func cmdChannels(args []string) {
	fs := flag.NewFlagSet("channels", flag.ExitOnError)
	onlyUncategorized := fs.Bool("uncategorized", false, "Only show channels without a category")
	fs.Parse(args)

	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		fatal(err)
	}
	defer a.Close(ctx)

	if err := a.LoadEverything(ctx); err != nil {
		fatal(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL ID\tCATEGORY\tTITLE")
	for _, s := range a.Subscriptions() {
		label := "-"
		if cat, ok := a.Collection().ForChannel(s.ChannelID); ok {
			if *onlyUncategorized {
				continue
			}
			label = cat.ID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ChannelID, label, s.Title)
	}
	w.Flush()
}

func cmdCategories(args []string) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	create := fs.String("create", "", "Create a category with this name")
	remove := fs.String("delete", "", "Delete the category with this ID")
	rename := fs.String("rename", "", "Rename the category with this ID (requires --to)")
	to := fs.String("to", "", "New name for --rename")
	fs.Parse(args)

	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		fatal(err)
	}
	defer a.Close(ctx)

	if err := a.LoadEverything(ctx); err != nil {
		fatal(err)
	}

	switch {
	case *create != "":
		cat := a.CreateCategory(*create)
		fmt.Printf("Created category %q (id: %s)\n", cat.Name, cat.ID)
	case *remove != "":
		if !a.DeleteCategory(*remove) {
			fatal(fmt.Errorf("category %q not found", *remove))
		}
		fmt.Printf("Deleted category %q\n", *remove)
	case *rename != "":
		if *to == "" {
			fatal(fmt.Errorf("--rename requires --to"))
		}
		if !a.RenameCategory(*rename, *to) {
			fatal(fmt.Errorf("category %q not found", *rename))
		}
		fmt.Printf("Renamed %q to %q\n", *rename, *to)
	default:
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCHANNELS\tNAME")
		for _, cat := range a.Collection().Categories {
			fmt.Fprintf(w, "%s\t%d\t%s\n", cat.ID, len(cat.ChannelIDs), cat.Name)
		}
		w.Flush()
	}
}

func cmdAssign(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: mytubes assign <channel-id> <category-id>")
		os.Exit(1)
	}
	channelID, categoryID := args[0], args[1]

	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		fatal(err)
	}
	defer a.Close(ctx)

	if err := a.LoadEverything(ctx); err != nil {
		fatal(err)
	}
	if categoryID != category.Uncategorized && a.Collection().ByID(categoryID) == nil {
		fatal(fmt.Errorf("category %q not found", categoryID))
	}

	a.AssignChannel(channelID, categoryID)
	fmt.Printf("Assigned %s to %q\n", channelID, categoryID)
}

func cmdSync(args []string) {
	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		fatal(err)
	}
	defer a.Close(ctx)

	start := time.Now()
	if err := a.Resync(ctx); err != nil {
		fatal(err)
	}
	fmt.Printf("Synced %d subscriptions and %d videos in %s\n",
		len(a.Subscriptions()), len(a.Videos()), time.Since(start).Round(time.Millisecond))
}

func cmdChat(args []string) {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		fmt.Fprintln(os.Stderr, "Usage: mytubes chat <message>")
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		fatal(err)
	}
	defer a.Close(ctx)

	if err := a.LoadEverything(ctx); err != nil {
		fatal(err)
	}

	explanation, results, err := a.Chat(ctx, message)
	if err != nil {
		fatal(err)
	}
	if explanation != "" {
		fmt.Println(explanation)
	}
	if len(results) > 0 {
		fmt.Println(strings.Join(results, "; "))
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
