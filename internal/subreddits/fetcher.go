// Package subreddits fetches the list of subreddits the session's moderator
// account moderates. The list serves as the allow-list gating which posts may
// be checked.
package subreddits

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"

	"github.com/reddit-tools/modbot/internal/reddit"
	"github.com/reddit-tools/modbot/internal/store"
	"github.com/rs/zerolog/log"
)

// maxPages bounds pagination in case the next-page marker never disappears.
const maxPages = 50

var (
	domainPattern = regexp.MustCompile(`<span class="domain">\(/r/([^/]+)`)

	// The marker must sit inside a link's href so that a bare "after="
	// echoed elsewhere in the page cannot keep pagination going. Reverse
	// links use "before=", so matching "after=" alone is enough to pick
	// out the next page.
	nextPagePattern = regexp.MustCompile(`href="[^"]*(?:\?|&(?:amp;)?)after=([^"&]+)`)
)

// Sender issues a single outbound request to reddit.
type Sender interface {
	Send(ctx context.Context, method, path, body string) (*reddit.Response, error)
}

// Fetcher walks the moderator subreddit listing.
type Fetcher struct {
	client Sender
}

// NewFetcher creates a fetcher using the given client.
func NewFetcher(client Sender) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch retrieves all moderated subreddits, following pagination, and
// returns them sorted.
func (f *Fetcher) Fetch(ctx context.Context) ([]string, error) {
	var names []string
	after := ""

	for page := 0; page < maxPages; page++ {
		path := "/reddits/mine/moderator/?count=0&after=" + url.QueryEscape(after)
		resp, err := f.client.Send(ctx, "GET", path, "")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch subreddit listing: %w", err)
		}

		for _, m := range domainPattern.FindAllStringSubmatch(resp.Body, -1) {
			names = append(names, m[1])
		}

		m := nextPagePattern.FindStringSubmatch(resp.Body)
		if m == nil {
			break
		}
		after = m[1]
	}

	sort.Strings(names)
	return names, nil
}

// Refresh fetches the current listing and installs it as the store's
// allow-list. A fetch failure leaves the previous list in place.
func (f *Fetcher) Refresh(ctx context.Context, st *store.Store) error {
	names, err := f.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Subreddit reload failed, keeping previous list")
		return err
	}

	st.SetSubreddits(names)
	log.Info().Int("count", len(names)).Msg("Subreddit allow-list refreshed")
	return nil
}
