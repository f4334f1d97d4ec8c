package main

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"vpn_reviews/internal/adapters/observability"
	redisad "vpn_reviews/internal/adapters/redis"
	"vpn_reviews/internal/adapters/render"
	"vpn_reviews/internal/shared"
)

type pageRef struct{ slug, locale string }

// Drains the revalidation queue: every (slug, locale) pair that a review
// mutation marked stale gets its page rebuilt by the render layer. Runs as a
// batch job (cron) and exits when the queue is empty; failed pairs are put
// back for the next run.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.RenderBase).
		Int("workers", cfg.Workers).
		Msg("revalidator starting")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	client, err := render.New(cfg.RenderBase, cfg.RenderToken, cfg.RenderRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize render client")
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []pageRef
		done   int
	)

	for {
		slug, locale, ok, err := cache.PopStale(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("pop stale entry failed")
		}
		if !ok {
			break
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		done++
		go func(slug, locale string) {
			defer wg.Done()
			defer sem.Release(1)

			err := client.Revalidate(ctx, slug, locale)
			switch {
			case err == nil:
				log.Info().Str("slug", slug).Str("locale", locale).Msg("revalidated")
			case errors.Is(err, render.ErrNotFound):
				// page is gone (provider dropped from the catalog); nothing to rebuild
				log.Info().Str("slug", slug).Str("locale", locale).Msg("page gone, dropping")
			default:
				log.Warn().Str("slug", slug).Str("locale", locale).Err(err).Msg("revalidate failed")
				mu.Lock()
				failed = append(failed, pageRef{slug, locale})
				mu.Unlock()
			}
		}(slug, locale)
	}

	wg.Wait()

	// requeue failures after the drain so this run terminates even when the
	// render layer is down
	for _, p := range failed {
		if err := cache.Requeue(ctx, p.slug, p.locale); err != nil {
			log.Error().Err(err).Str("slug", p.slug).Str("locale", p.locale).Msg("requeue failed")
		}
	}

	log.Info().Int("processed", done).Int("failed", len(failed)).Msg("revalidation completed")
}
