// Package pipeline implements the two lead workflows: discovery (places
// search → site scrape → email extraction → lead upsert) and outreach
// (pending leads → icebreaker generation → mail send → status upsert). Both
// run strictly sequentially with courtesy delays between network calls; the
// targets are rate-sensitive third parties.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/divisual/leadgen-cli/internal/config"
	"github.com/divisual/leadgen-cli/internal/fetch"
	"github.com/divisual/leadgen-cli/internal/leadstore"
	"github.com/divisual/leadgen-cli/internal/resilience"
	"github.com/divisual/leadgen-cli/pkg/anthropic"
	"github.com/divisual/leadgen-cli/pkg/gmail"
	"github.com/divisual/leadgen-cli/pkg/places"
)

// Pipeline bundles the collaborators both workflows run against.
type Pipeline struct {
	cfg     *config.Config
	leads   leadstore.Store
	places  places.Client
	ai      anthropic.Client
	mail    gmail.Sender
	fetcher fetch.Fetcher

	// sleep is swapped out in tests so runs don't wait out courtesy delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	leads leadstore.Store,
	placesClient places.Client,
	aiClient anthropic.Client,
	mailSender gmail.Sender,
	fetcher fetch.Fetcher,
) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		leads:   leads,
		places:  placesClient,
		ai:      aiClient,
		mail:    mailSender,
		fetcher: fetcher,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// fetchPage fetches one page with a single retry after a fixed backoff. Any
// terminal failure degrades to an empty body; callers decide what an empty
// page means for their stage.
func (p *Pipeline) fetchPage(ctx context.Context, url string, timeout, backoff time.Duration) string {
	res, err := fetch.WithRetry(ctx, p.fetcher, url, timeout, resilience.Fixed(2, backoff))
	if err != nil {
		zap.L().Warn("pipeline: page fetch failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return res.Body
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
