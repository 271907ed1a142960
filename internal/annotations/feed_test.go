package annotations

import (
	"context"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedItem(title, link string, published *time.Time) *gofeed.Item {
	return &gofeed.Item{Title: title, Link: link, PublishedParsed: published}
}

func TestImportFeed(t *testing.T) {
	ctx := context.Background()
	m := NewModel(NewMemoryBackend(), Scope{DashboardItem: "3"}, testViewer)

	jan4 := day("2021-01-04T10:00")
	jan1 := day("2021-01-01T09:00")
	dec := day("2020-12-01")
	updated := day("2021-01-02")
	items := []*gofeed.Item{
		feedItem("v1.2.0", "https://example.com/v1.2.0", &jan4),
		feedItem("v1.1.0", "", &jan1),
		feedItem("v1.0.0", "", &dec),
		feedItem("undated", "", nil),
		{Title: "hotfix", UpdatedParsed: &updated},
		feedItem("   ", "", &jan4),
	}

	n, err := ImportFeed(ctx, m, items, day("2021-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, "[v1.2.0](https://example.com/v1.2.0)", list[0].Content)
	assert.True(t, list[0].DateMarker.Equal(jan4))
	assert.Equal(t, "v1.1.0", list[1].Content)
	assert.Equal(t, "hotfix", list[2].Content)

	again, err := ImportFeed(ctx, m, items, day("2021-01-01"))
	require.NoError(t, err)
	assert.Zero(t, again, "re-importing adds nothing")
	assert.Len(t, m.List(), 3)
}

func TestImportFeedStopsOnBackendError(t *testing.T) {
	jan := day("2021-01-05")
	m := NewModel(&flakyBackend{MemoryBackend: NewMemoryBackend(), okCreates: 1}, Scope{DashboardItem: "3"}, testViewer)
	n, err := ImportFeed(context.Background(), m, []*gofeed.Item{
		feedItem("a", "", &jan),
		feedItem("b", "", &jan),
	}, time.Time{})
	assert.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, 1, n)
}
