// Package feed renders article records as an RSS 2.0 document and verifies
// the result with a real feed parser.
package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"oricon-feed/internal/domain/entity"
	"oricon-feed/internal/utils/text"
)

const (
	rssVersion     = "2.0"
	atomNamespace  = "http://www.w3.org/2005/Atom"
	selfLinkType   = "application/rss+xml"
	enclosureLen   = "0"
	defaultImgType = "image/jpeg"
)

// ErrNoItems indicates Render was called without records.
var ErrNoItems = errors.New("feed must contain at least one item")

// textEscaper pre-escapes free text before it is wrapped in CDATA, so feed
// readers that ignore CDATA still see entities rather than markup.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// ChannelConfig describes the channel envelope.
type ChannelConfig struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	// SelfURL is the atom:link self reference. Defaults to Link.
	SelfURL string `yaml:"self_url"`
	// ImageType is the MIME type declared on image enclosures.
	ImageType string `yaml:"image_type"`
}

// DefaultChannelConfig returns the channel envelope for the given source page.
func DefaultChannelConfig(sourceURL string) ChannelConfig {
	return ChannelConfig{
		Title:       "Oricon Anime News",
		Link:        sourceURL,
		Description: "Latest anime news from Oricon",
		Language:    "en",
		SelfURL:     sourceURL,
		ImageType:   defaultImgType,
	}
}

// Validate checks the channel envelope.
func (c *ChannelConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, errors.New("channel title is required"))
	}
	if err := entity.ValidateAbsoluteURL("channel link", c.Link); err != nil {
		errs = append(errs, err)
	}
	if c.SelfURL != "" {
		if err := entity.ValidateAbsoluteURL("channel self_url", c.SelfURL); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       cdata         `xml:"title"`
	Link        string        `xml:"link"`
	Description cdata         `xml:"description"`
	PubDate     string        `xml:"pubDate"`
	GUID        rssGUID       `xml:"guid"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length string `xml:"length,attr"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// Renderer serializes records into an RSS 2.0 document.
type Renderer struct {
	channel ChannelConfig
	now     func() time.Time
}

// NewRenderer creates a Renderer. A nil now uses time.Now.
func NewRenderer(channel ChannelConfig, now func() time.Time) *Renderer {
	if channel.SelfURL == "" {
		channel.SelfURL = channel.Link
	}
	if channel.ImageType == "" {
		channel.ImageType = defaultImgType
	}
	if now == nil {
		now = time.Now
	}
	return &Renderer{channel: channel, now: now}
}

// FormatDate formats t the way item pubDate and channel lastBuildDate are
// written: RFC 1123 with a numeric zone, always in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC1123Z)
}

// Render returns the UTF-8 encoded document for articles, in order.
func (r *Renderer) Render(articles []entity.Article) ([]byte, error) {
	if len(articles) == 0 {
		return nil, ErrNoItems
	}

	doc := rssDocument{
		Version: rssVersion,
		AtomNS:  atomNamespace,
		Channel: rssChannel{
			Title:         r.channel.Title,
			Link:          r.channel.Link,
			Description:   r.channel.Description,
			Language:      r.channel.Language,
			LastBuildDate: FormatDate(r.now()),
			AtomLink: atomLink{
				Href: r.channel.SelfURL,
				Rel:  "self",
				Type: selfLinkType,
			},
			Items: make([]rssItem, 0, len(articles)),
		},
	}

	for i := range articles {
		doc.Channel.Items = append(doc.Channel.Items, r.item(&articles[i]))
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

func (r *Renderer) item(a *entity.Article) rssItem {
	it := rssItem{
		Title:       cdata{Text: textEscaper.Replace(text.StripInvalidXML(a.Title))},
		Link:        a.Link,
		Description: cdata{Text: textEscaper.Replace(text.StripInvalidXML(a.Description))},
		PubDate:     FormatDate(a.PublishedAt),
		GUID:        rssGUID{IsPermaLink: "true", Value: a.Link},
	}
	if a.HasImage() {
		it.Enclosure = &rssEnclosure{
			URL:    a.Image,
			Type:   r.channel.ImageType,
			Length: enclosureLen,
		}
	}
	return it
}
