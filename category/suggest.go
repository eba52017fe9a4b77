package category

import "strings"

// topicNames maps the final path segment of a platform topic URL to a coarse
// category name. The platform reports Wikipedia-style topic identifiers;
// many distinct segments collapse onto one category.
var topicNames = map[string]string{
	"Technology":              "Software Dev",
	"Computer_programming":    "Software Dev",
	"Software":                "Software Dev",
	"Computer_science":        "Software Dev",
	"Programming_language":    "Software Dev",
	"Artificial_intelligence": "Software Dev",
	"Machine_learning":        "Software Dev",
	"Politics":                "Politics",
	"Society":                 "Politics",
	"Government":              "Politics",
	"Activism":                "Politics",
	"Journalism":              "Politics",
	"Woodworking":             "Woodworking",
	"Do_it_yourself":          "DIY & Home",
	"Home_improvement":        "DIY & Home",
	"Entertainment":           "Entertainment",
	"Film":                    "Entertainment",
	"Television_program":      "Entertainment",
	"Humour":                  "Entertainment",
	"Comedy":                  "Entertainment",
	"Performing_arts":         "Entertainment",
	"Music":                   "Music",
	"Hip_hop_music":           "Music",
	"Electronic_music":        "Music",
	"Rock_music":              "Music",
	"Classical_music":         "Music",
	"Pop_music":               "Music",
	"Jazz":                    "Music",
	"Soul_music":              "Music",
	"Country_music":           "Music",
	"Rhythm_and_blues":        "Music",
	"Independent_music":       "Music",
	"Music_of_Asia":           "Music",
	"Music_of_Latin_America":  "Music",
	"Video_game":              "Gaming",
	"Video_game_culture":      "Gaming",
	"Action_game":             "Gaming",
	"Role-playing_video_game": "Gaming",
	"Sport":                   "Sports",
	"Association_football":    "Sports",
	"Basketball":              "Sports",
	"Baseball":                "Sports",
	"American_football":       "Sports",
	"Ice_hockey":              "Sports",
	"Tennis":                  "Sports",
	"Golf":                    "Sports",
	"Cricket":                 "Sports",
	"Boxing":                  "Sports",
	"Mixed_martial_arts":      "Sports",
	"Motorsport":              "Sports",
	"Wrestling":               "Sports",
	"Physical_fitness":        "Health & Fitness",
	"Health":                  "Health & Fitness",
	"Nutrition":               "Health & Fitness",
	"Cooking":                 "Food & Cooking",
	"Recipe":                  "Food & Cooking",
	"Food":                    "Food & Cooking",
	"Cuisine":                 "Food & Cooking",
	"Tourism":                 "Travel",
	"Vehicle":                 "Automotive",
	"Automobile":              "Automotive",
	"Motorcycle":              "Automotive",
	"Knowledge":               "Education",
	"Education":               "Education",
	"Science":                 "Science",
	"Physics":                 "Science",
	"Mathematics":             "Science",
	"Biology":                 "Science",
	"Chemistry":               "Science",
	"Nature":                  "Science & Nature",
	"Pet":                     "Pets & Animals",
	"Animal":                  "Pets & Animals",
	"Fashion":                 "Lifestyle",
	"Beauty":                  "Lifestyle",
	"Lifestyle_(sociology)":   "Lifestyle",
	"Business":                "Business & Finance",
	"Finance":                 "Business & Finance",
	"Entrepreneurship":        "Business & Finance",
	"Military":                "History & Military",
	"History":                 "History & Military",
	"Religion":                "Religion & Philosophy",
	"Philosophy":              "Religion & Philosophy",
}

// SuggestNone is the fallback suggestion for channels whose topics match
// nothing in the table. It names the Uncategorized pseudo-category and is
// never turned into a real category.
const SuggestNone = "Uncategorized"

// Suggest derives a category name from a channel's topic URLs. Only the final
// path segment of each URL is significant. Scan order follows the input; the
// first table hit wins.
func Suggest(topicURLs []string) string {
	for _, u := range topicURLs {
		segment := u
		if i := strings.LastIndex(u, "/"); i >= 0 {
			segment = u[i+1:]
		}
		if name, ok := topicNames[segment]; ok {
			return name
		}
	}
	return SuggestNone
}

// ChannelTopics pairs a channel ID with its platform-supplied topic URLs.
type ChannelTopics struct {
	ChannelID string
	TopicURLs []string
}

// AutoSuggest computes a suggestion for every subscription, ensures a
// category for each distinct non-fallback name, and assigns each channel to
// its suggested category. Channels already in their suggested category are
// left alone. Returns the per-channel suggestions for display.
func AutoSuggest(col *Collection, subs []ChannelTopics) map[string]string {
	suggestions := make(map[string]string, len(subs))
	for _, sub := range subs {
		suggestions[sub.ChannelID] = Suggest(sub.TopicURLs)
	}

	// Create categories for distinct suggested names, in subscription order
	// so collection order stays deterministic.
	seen := make(map[string]bool)
	for _, sub := range subs {
		name := suggestions[sub.ChannelID]
		if name == SuggestNone || seen[name] {
			continue
		}
		seen[name] = true
		col.Ensure(name)
	}

	for _, sub := range subs {
		name := suggestions[sub.ChannelID]
		if name == SuggestNone {
			continue
		}
		cat := col.ByName(name)
		if cat != nil && !cat.Contains(sub.ChannelID) {
			col.Assign(sub.ChannelID, cat.ID)
		}
	}

	return suggestions
}
