package annotations

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"trendgraph/internal/logger"
	"trendgraph/internal/models"
)

// FeedContent is the annotation text written for a feed item
func FeedContent(item *gofeed.Item) string {
	title := strings.TrimSpace(item.Title)
	if item.Link == "" {
		return title
	}
	return "[" + title + "](" + item.Link + ")"
}

func itemDate(item *gofeed.Item) (time.Time, bool) {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed, true
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed, true
	}
	return time.Time{}, false
}

// ImportFeed writes one annotation per dated feed item published at or after
// since. Items already present with the same day and content are skipped, so
// importing a feed twice adds nothing.
func ImportFeed(ctx context.Context, m *Model, items []*gofeed.Item, since time.Time) (int, error) {
	log := logger.Component("feed")
	seen := make(map[string]bool)
	for _, a := range m.List() {
		seen[models.FormatDay(a.DateMarker)+"\x00"+a.Content] = true
	}

	imported := 0
	for _, item := range items {
		date, ok := itemDate(item)
		if !ok {
			log.Debug("Skipping undated feed item", logger.Fields{"title": item.Title})
			continue
		}
		if date.Before(since) || strings.TrimSpace(item.Title) == "" {
			continue
		}
		content := FeedContent(item)
		key := models.FormatDay(date.UTC()) + "\x00" + content
		if seen[key] {
			continue
		}
		if _, err := m.CreateNow(ctx, content, date); err != nil {
			return imported, err
		}
		seen[key] = true
		imported++
	}
	log.Info("Feed imported", logger.Fields{"imported": imported, "items": len(items)})
	return imported, nil
}
