package feed_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oricon-feed/internal/domain/entity"
	"oricon-feed/internal/infra/feed"
)

const sourceURL = "https://us.oricon-group.com/category/anime/"

var buildTime = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newRenderer() *feed.Renderer {
	return feed.NewRenderer(feed.DefaultChannelConfig(sourceURL), func() time.Time { return buildTime })
}

func sampleArticles() []entity.Article {
	jst := time.FixedZone("JST", 9*60*60)
	return []entity.Article{
		{
			Title:       "Frieren Season 2 announced",
			Link:        "https://us.oricon-group.com/anime/frieren-season-2/",
			Description: "The second season premieres in January.",
			PublishedAt: time.Date(2026, 10, 18, 10, 0, 0, 0, jst),
			Image:       "https://us.oricon-group.com/images/frieren.jpg",
		},
		{
			Title:       "Dandadan tops the chart",
			Link:        "https://us.oricon-group.com/anime/dandadan/",
			Description: "Dandadan tops the chart",
			PublishedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestRender_Envelope(t *testing.T) {
	doc, err := newRenderer().Render(sampleArticles())
	require.NoError(t, err)
	out := string(doc)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	assert.Contains(t, out, "<title>Oricon Anime News</title>")
	assert.Contains(t, out, "<link>"+sourceURL+"</link>")
	assert.Contains(t, out, "<description>Latest anime news from Oricon</description>")
	assert.Contains(t, out, "<language>en</language>")
	assert.Contains(t, out, "<lastBuildDate>Mon, 19 Oct 2026 09:30:00 +0000</lastBuildDate>")
	assert.Contains(t, out, `<atom:link href="`+sourceURL+`" rel="self" type="application/rss+xml"></atom:link>`)
}

func TestRender_Items(t *testing.T) {
	doc, err := newRenderer().Render(sampleArticles())
	require.NoError(t, err)
	out := string(doc)

	assert.Equal(t, 2, strings.Count(out, "<item>"))
	assert.Contains(t, out, "<title><![CDATA[Frieren Season 2 announced]]></title>")
	assert.Contains(t, out, "<description><![CDATA[The second season premieres in January.]]></description>")
	assert.Contains(t, out, "<pubDate>Sun, 18 Oct 2026 01:00:00 +0000</pubDate>", "dates are rendered in UTC")
	assert.Contains(t, out, `<guid isPermaLink="true">https://us.oricon-group.com/anime/dandadan/</guid>`)
	assert.Contains(t, out, `<enclosure url="https://us.oricon-group.com/images/frieren.jpg" type="image/jpeg" length="0"></enclosure>`)
	assert.Equal(t, 1, strings.Count(out, "<enclosure"), "items without image have no enclosure")

	// document order follows record order
	assert.Less(t, strings.Index(out, "frieren-season-2"), strings.Index(out, "dandadan"))
}

func TestRender_EscapesTextInsideCDATA(t *testing.T) {
	articles := []entity.Article{{
		Title:       `Tom & Jerry <Special> "Movie"`,
		Link:        "https://us.oricon-group.com/anime/tom-jerry/?a=1&b=2",
		Description: "Ends with ]]> marker",
		PublishedAt: buildTime,
	}}

	doc, err := newRenderer().Render(articles)
	require.NoError(t, err)
	out := string(doc)

	assert.Contains(t, out, `<title><![CDATA[Tom &amp; Jerry &lt;Special&gt; "Movie"]]></title>`)
	assert.Contains(t, out, `<description><![CDATA[Ends with ]]&gt; marker]]></description>`)
	assert.Contains(t, out, "<link>https://us.oricon-group.com/anime/tom-jerry/?a=1&amp;b=2</link>",
		"the XML encoder keeps URLs well-formed")

	_, err = feed.Verify(doc, 1)
	assert.NoError(t, err)
}

func TestRender_DropsCharactersIllegalInXML(t *testing.T) {
	articles := []entity.Article{
		{
			Title:       "Good headline\x01 here",
			Link:        "https://us.oricon-group.com/anime/good/",
			Description: "Summary with \x0b vertical tab",
			PublishedAt: buildTime,
		},
		{
			Title:       "Second headline",
			Link:        "https://us.oricon-group.com/anime/second/",
			PublishedAt: buildTime,
		},
	}

	doc, err := newRenderer().Render(articles)
	require.NoError(t, err)

	parsed, err := feed.Verify(doc, 2)
	require.NoError(t, err)
	assert.Equal(t, "Good headline here", parsed.Items[0].Title)
	assert.NotContains(t, parsed.Items[0].Description, "\x0b")
	assert.Contains(t, parsed.Items[0].Description, "vertical tab")
}

func TestRender_Placeholder(t *testing.T) {
	placeholder := entity.NewPlaceholderArticle(sourceURL, buildTime)

	doc, err := newRenderer().Render([]entity.Article{placeholder})
	require.NoError(t, err)

	parsed, err := feed.Verify(doc, 1)
	require.NoError(t, err)
	assert.Equal(t, sourceURL, parsed.Link)
	assert.Equal(t, sourceURL, parsed.Items[0].Link)
	assert.Equal(t, entity.PlaceholderTitle, parsed.Items[0].Title)
}

func TestRender_NoItems(t *testing.T) {
	_, err := newRenderer().Render(nil)
	assert.ErrorIs(t, err, feed.ErrNoItems)
}

func TestRender_CustomChannel(t *testing.T) {
	ch := feed.ChannelConfig{
		Title:       "Anime",
		Link:        sourceURL,
		Description: "Custom",
		ImageType:   "image/webp",
	}
	articles := sampleArticles()[:1]

	doc, err := feed.NewRenderer(ch, nil).Render(articles)
	require.NoError(t, err)
	out := string(doc)

	assert.NotContains(t, out, "<language>")
	assert.Contains(t, out, `<atom:link href="`+sourceURL+`"`, "self link defaults to channel link")
	assert.Contains(t, out, `type="image/webp"`)
}

func TestFormatDate(t *testing.T) {
	pst := time.FixedZone("PST", -8*60*60)
	assert.Equal(t, "Tue, 06 Jan 2026 07:59:05 +0000", feed.FormatDate(time.Date(2026, 1, 5, 23, 59, 5, 0, pst)))
}

func TestChannelConfigValidate(t *testing.T) {
	valid := feed.DefaultChannelConfig(sourceURL)
	assert.NoError(t, valid.Validate())

	invalid := feed.ChannelConfig{Title: " ", Link: "/relative", SelfURL: "ftp://x"}
	err := invalid.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel title is required")
	assert.Contains(t, err.Error(), "channel link")
	assert.Contains(t, err.Error(), "channel self_url")
}
