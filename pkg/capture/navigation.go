package capture

import (
	"context"
	"time"

	"github.com/replaykit/replaykit/pkg/models"
)

// handleNavigation records history mutations and full reloads delivered by
// the source, suppressing duplicates of the current URL.
func (s *Session) handleNavigation(ctx context.Context, ev PageEvent) {
	s.recordNavigation(ctx, ev.Timestamp, ev.URL)
}

// handleFileSelected records an upload interaction.
func (s *Session) handleFileSelected(ctx context.Context, ev PageEvent) {
	rec := &models.RawRecord{
		Kind:        string(models.ActionTypeUpload),
		Timestamp:   ev.Timestamp,
		File:        ev.File,
		Selector:    ev.Target.Selector,
		Fingerprint: skeletonFingerprint(ev),
	}

	s.mu.Lock()
	key := s.emitLocked(ctx, rec)
	s.mu.Unlock()

	s.enrichAsync(ctx, key, ev.Target)
}

// pollURL is the fallback for URL changes neither history interception nor
// reload interception observes.
func (s *Session) pollURL(ctx context.Context, source URLSource) {
	ticker := time.NewTicker(s.cfg.NavigationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			url, err := source.CurrentURL(ctx)
			if err != nil {
				s.logger.Debug("URL poll failed", "error", err)

				continue
			}

			s.recordNavigation(ctx, time.Now().UnixMilli(), url)
		}
	}
}

func (s *Session) recordNavigation(ctx context.Context, timestamp int64, url string) {
	if url == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if url == s.lastURL {
		return
	}

	s.lastURL = url

	s.emitLocked(ctx, &models.RawRecord{
		Kind:      string(models.ActionTypeNavigate),
		Timestamp: timestamp,
		URL:       url,
	})
}
