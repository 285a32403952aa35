package feed

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// ErrVerificationFailed indicates a rendered document is not the feed that
// was meant to be written.
var ErrVerificationFailed = errors.New("feed verification failed")

// Verify parses doc as a feed reader would and checks that it is RSS with
// exactly want items, each carrying a title and a link.
func Verify(doc []byte, want int) (*gofeed.Feed, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	if parsed.FeedType != "rss" {
		return nil, fmt.Errorf("%w: feed type %q, want rss", ErrVerificationFailed, parsed.FeedType)
	}
	if len(parsed.Items) != want {
		return nil, fmt.Errorf("%w: %d items, want %d", ErrVerificationFailed, len(parsed.Items), want)
	}
	for i, item := range parsed.Items {
		if item.Title == "" || item.Link == "" {
			return nil, fmt.Errorf("%w: item %d lacks a title or link", ErrVerificationFailed, i)
		}
	}

	return parsed, nil
}
