package youtube

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// shortMaxDuration is the cutoff below which a video counts as a Short.
const shortMaxDuration = 60 * time.Second

var iso8601DurationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISO8601Duration parses the PT#H#M#S durations the API returns.
// Live streams report "P0D", which parses to zero.
func ParseISO8601Duration(s string) (time.Duration, error) {
	if s == "" || s == "P0D" {
		return 0, nil
	}
	m := iso8601DurationRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("parse duration %q", s)
	}
	var d time.Duration
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		d += time.Duration(h) * time.Hour
	}
	if m[2] != "" {
		min, _ := strconv.Atoi(m[2])
		d += time.Duration(min) * time.Minute
	}
	if m[3] != "" {
		sec, _ := strconv.Atoi(m[3])
		d += time.Duration(sec) * time.Second
	}
	return d, nil
}

// FormatDuration renders a duration as M:SS or H:MM:SS.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatViews renders a view count as 1.2M, 3.4K, or the plain number.
func FormatViews(n uint64) string {
	switch {
	case n >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1_000_000)) + "M"
	case n >= 1_000:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1_000)) + "K"
	default:
		return strconv.FormatUint(n, 10)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

// IsShort reports whether a video is a Short: at most 60 seconds long, or
// tagged #shorts in the title. Zero durations are not Shorts, so unresolved
// details and live streams pass through.
func IsShort(v Video) bool {
	if v.Duration > 0 && v.Duration <= shortMaxDuration {
		return true
	}
	return strings.Contains(strings.ToLower(v.Title), "#shorts")
}

// FilterShorts removes Shorts from the list. It returns the input slice
// unchanged when nothing matched.
func FilterShorts(videos []Video) []Video {
	kept := videos[:0:0]
	for _, v := range videos {
		if !IsShort(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(videos) {
		return videos
	}
	return kept
}

// SortNewestFirst orders videos by publish time, newest first. The sort is
// stable so same-timestamp videos keep their fetch order.
func SortNewestFirst(videos []Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Published.After(videos[j].Published)
	})
}
