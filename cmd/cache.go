package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/repositories"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// cacheRepository opens the track cache named by the config.
func (r *Runner) cacheRepository(cmd *cli.Command) (*repositories.TrackRepository, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	repo, err := r.openCache(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open track cache: %w", err)
	}
	return repo, nil
}

// CacheList prints cached tracks, optionally filtered by ISRC or market.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.cacheRepository(cmd)
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if isrc := cmd.String("isrc"); isrc != "" {
		criteria["isrc"] = isrc
	}
	if market := cmd.String("market"); market != "" {
		criteria["market"] = market
	}
	if limit := int(cmd.Int("limit")); limit > 0 {
		criteria["limit"] = limit
	}

	tracks, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list cached tracks: %w", err)
	}

	if cmd.Bool("json") {
		items := make([]map[string]any, 0, len(tracks))
		for _, t := range tracks {
			items = append(items, map[string]any{
				"id":          t.ID(),
				"sequence":    t.Sequence(),
				"spotify_id":  t.SpotifyID(),
				"name":        t.Name(),
				"artists":     t.Artists(),
				"album":       t.Album(),
				"duration_ms": t.DurationMs(),
				"isrc":        t.ISRC(),
				"market":      t.Market(),
				"updated_at":  t.UpdatedAt(),
			})
		}
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		r.writePlain("%s\n", ui.Styles.Help("Track cache is empty"))
		return nil
	}

	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		market := t.Market()
		if market == "" {
			market = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(t.Sequence()),
			t.SpotifyID(),
			t.Name(),
			t.Artists(),
			formatter.FormatDuration(t.DurationMs()),
			t.ISRC(),
			market,
		})
	}

	r.writePlain("%s\n", ui.Table([]string{"#", "Spotify ID", "Name", "Artists", "Duration", "ISRC", "Market"}, rows))
	return nil
}

// CacheClear removes every cached track.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.cacheRepository(cmd)
	if err != nil {
		return err
	}

	n, err := repo.Purge()
	if err != nil {
		return fmt.Errorf("failed to clear track cache: %w", err)
	}

	r.logger.Info("track cache cleared", "rows", n)
	r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Removed %d cached track(s)", n)))
	return nil
}
