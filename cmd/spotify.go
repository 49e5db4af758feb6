package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/models"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/tasks"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

var pitchClasses = []string{"C", "C♯/D♭", "D", "D♯/E♭", "E", "F", "F♯/G♭", "G", "G♯/A♭", "A", "A♯/B♭", "B"}

// keyName maps a pitch class integer to its name. -1 means no key was detected.
func keyName(key int) string {
	if key < 0 || key >= len(pitchClasses) {
		return "-"
	}
	return pitchClasses[key]
}

func modeName(mode int) string {
	if mode == 1 {
		return "major"
	}
	return "minor"
}

// trackArgs returns the positional track arguments or [shared.ErrMissingArgument].
func trackArgs(cmd *cli.Command) ([]string, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one track id, URI or link", shared.ErrMissingArgument)
	}
	return args, nil
}

// writeOutput writes data to the --output file when set, stdout otherwise.
func (r *Runner) writeOutput(cmd *cli.Command, data []byte) error {
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.logger.Info("output written", "path", path, "bytes", len(data))
		return nil
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// renderTracks formats tracks using the --format flag.
func (r *Runner) renderTracks(cmd *cli.Command, title string, tracks []models.Track) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var data []byte
	if format == formatter.FormatJSON {
		if data, err = shared.MarshalJSON(tracks, cmd.Bool("pretty")); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		data = append(data, '\n')
	} else if data, err = formatter.Render(format, title, tracks); err != nil {
		return err
	}

	return r.writeOutput(cmd, data)
}

// TrackGet prints a single track.
func (r *Runner) TrackGet(ctx context.Context, cmd *cli.Command) error {
	args, err := trackArgs(cmd)
	if err != nil {
		return err
	}

	if err := r.ensureServices(ctx, cmd); err != nil {
		return err
	}

	track, err := r.catalog.Track(ctx, args[0], cmd.String("market"))
	if errors.Is(err, shared.ErrTrackNotFound) {
		r.logger.Debug("track lookup rejected", "input", args[0], "error", err)
		if cmd.Bool("json") {
			return r.writeJSON(nil, false)
		}
		return r.writePlain("Track %s not found\n", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to fetch track: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", ui.Styles.Title(track.Name))
	r.writePlain("  Artists:  %s\n", track.ArtistNames())
	r.writePlain("  Album:    %s\n", track.Album.Name)
	r.writePlain("  Duration: %s\n", formatter.FormatDuration(track.DurationMs))
	if isrc := track.ISRC(); isrc != "" {
		r.writePlain("  ISRC:     %s\n", isrc)
	}
	r.writePlain("  URI:      %s\n", track.URI)
	if track.LinkedFrom != nil {
		r.writePlain("%s\n", ui.Styles.Help("  relinked from "+track.LinkedFrom.ID))
	}
	return nil
}

// TracksSeveral prints up to 50 tracks in the requested format.
func (r *Runner) TracksSeveral(ctx context.Context, cmd *cli.Command) error {
	args, err := trackArgs(cmd)
	if err != nil {
		return err
	}

	if err := r.ensureServices(ctx, cmd); err != nil {
		return err
	}

	results, err := r.catalog.SeveralTracks(ctx, args, cmd.String("market"))
	if err != nil {
		return fmt.Errorf("failed to fetch tracks: %w", err)
	}

	tracks := make([]models.Track, 0, len(results))
	for i, t := range results {
		if t == nil {
			r.logger.Warn("track not found", "input", args[i])
			continue
		}
		tracks = append(tracks, *t)
	}

	return r.renderTracks(cmd, "Tracks", tracks)
}

// TrackFeatures prints audio features for one or more tracks.
func (r *Runner) TrackFeatures(ctx context.Context, cmd *cli.Command) error {
	args, err := trackArgs(cmd)
	if err != nil {
		return err
	}

	if err := r.ensureServices(ctx, cmd); err != nil {
		return err
	}

	var features []*models.AudioFeatures
	if len(args) == 1 {
		f, err := r.catalog.AudioFeatures(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch audio features: %w", err)
		}
		features = []*models.AudioFeatures{f}
	} else if features, err = r.catalog.SeveralAudioFeatures(ctx, args); err != nil {
		return fmt.Errorf("failed to fetch audio features: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(features, cmd.Bool("pretty"))
	}

	rows := make([][]string, 0, len(features))
	for i, f := range features {
		if f == nil {
			rows = append(rows, []string{args[i], "-", "-", "-", "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			f.ID,
			strconv.FormatFloat(f.Tempo, 'f', 1, 64),
			keyName(f.Key),
			modeName(f.Mode),
			strconv.FormatFloat(f.Energy, 'f', 2, 64),
			strconv.FormatFloat(f.Danceability, 'f', 2, 64),
			strconv.FormatFloat(f.Valence, 'f', 2, 64),
			strconv.FormatFloat(f.Loudness, 'f', 1, 64),
		})
	}

	headers := []string{"ID", "Tempo", "Key", "Mode", "Energy", "Danceability", "Valence", "Loudness"}
	r.writePlain("%s\n", ui.Table(headers, rows))
	return nil
}

// TrackAnalysis prints a summary of a track's audio analysis.
func (r *Runner) TrackAnalysis(ctx context.Context, cmd *cli.Command) error {
	args, err := trackArgs(cmd)
	if err != nil {
		return err
	}

	if err := r.ensureServices(ctx, cmd); err != nil {
		return err
	}

	analysis, err := r.catalog.AudioAnalysis(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch audio analysis: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(analysis, cmd.Bool("pretty"))
	}

	t := analysis.Track
	r.writePlain("%s\n", ui.Styles.Title("Audio analysis"))
	r.writePlain("  Duration:       %s\n", formatter.FormatDuration(int(t.Duration*1000)))
	r.writePlain("  Tempo:          %.1f BPM\n", t.Tempo)
	r.writePlain("  Key:            %s %s\n", keyName(t.Key), modeName(t.Mode))
	r.writePlain("  Time signature: %d/4\n", t.TimeSignature)
	r.writePlain("  Loudness:       %.1f dB\n", t.Loudness)
	r.writePlain("  Bars: %d  Beats: %d  Sections: %d  Segments: %d  Tatums: %d\n",
		len(analysis.Bars), len(analysis.Beats), len(analysis.Sections), len(analysis.Segments), len(analysis.Tatums))
	return nil
}

// Me prints the current user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureUserServices(ctx, cmd); err != nil {
		return err
	}

	user, err := r.catalog.UserProfile(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	r.writePlain("%s\n", ui.Styles.Title(name))
	r.writePlain("  ID:      %s\n", user.ID)
	if user.Country != "" {
		r.writePlain("  Country: %s\n", user.Country)
	}
	if user.Product != "" {
		r.writePlain("  Product: %s\n", user.Product)
	}
	if user.Followers != nil {
		r.writePlain("  Followers: %d\n", user.Followers.Total)
	}
	return nil
}

// PlaylistsList prints one page of the current user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureUserServices(ctx, cmd); err != nil {
		return err
	}

	page, err := r.catalog.UserPlaylists(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")))
	if err != nil {
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	rows := make([][]string, 0, len(page.Items))
	for _, p := range page.Items {
		rows = append(rows, []string{p.Name, p.ID, strconv.Itoa(p.Tracks.Total), p.Owner.DisplayName})
	}

	r.writePlain("%s\n", ui.Table([]string{"Name", "ID", "Tracks", "Owner"}, rows))
	r.writePageFooter(page.Offset, len(page.Items), page.Total, page.HasNext())
	return nil
}

// PlaylistGet prints a playlist's first page of tracks in the requested format.
func (r *Runner) PlaylistGet(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	if err := r.ensureServices(ctx, cmd); err != nil {
		return err
	}

	playlist, err := r.catalog.Playlist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}

	tracks := make([]models.Track, 0, len(playlist.Tracks.Items))
	for _, item := range playlist.Tracks.Items {
		if item.Track != nil {
			tracks = append(tracks, *item.Track)
		}
	}

	if playlist.Tracks.HasNext() {
		r.logger.Info("playlist has more tracks than the first page",
			"shown", len(tracks), "total", playlist.Tracks.Total)
	}

	return r.renderTracks(cmd, playlist.Name, tracks)
}

// PlaylistExport writes whole playlists to files and prints progress as it goes.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one playlist id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.ensureServices(ctx, cmd); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progress {
			if update.Phase == tasks.ExportPlaylist && update.Data != nil {
				r.writePlain("%s\n", update.Message)
			} else {
				r.logger.Debug(update.Message, "phase", update.Phase)
			}
		}
	}()

	exporter := tasks.NewExporter(r.catalog, r.logger)
	result, err := exporter.BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-printed
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("Exported %d of %d playlist(s) to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("%s\n", ui.Styles.Warn(summary))
	} else {
		r.writePlain("%s\n", ui.Styles.OK(summary))
	}
	r.writePlain("%s\n", ui.Styles.Help("Manifest: "+result.ManifestPath))
	return nil
}

// LibraryList prints one page of saved tracks in the requested format.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureUserServices(ctx, cmd); err != nil {
		return err
	}

	page, err := r.catalog.SavedTracks(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")))
	if err != nil {
		return fmt.Errorf("failed to fetch saved tracks: %w", err)
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, item.Track)
	}

	return r.renderTracks(cmd, "Saved tracks", tracks)
}

// LibrarySave saves tracks to the current user's library.
func (r *Runner) LibrarySave(ctx context.Context, cmd *cli.Command) error {
	args, err := trackArgs(cmd)
	if err != nil {
		return err
	}

	if err := r.ensureUserServices(ctx, cmd); err != nil {
		return err
	}

	if err := r.catalog.SaveTracks(ctx, args); err != nil {
		return fmt.Errorf("failed to save tracks: %w", err)
	}

	r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Saved %d track(s)", len(args))))
	return nil
}

// LibraryRemove removes tracks from the current user's library.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	args, err := trackArgs(cmd)
	if err != nil {
		return err
	}

	if err := r.ensureUserServices(ctx, cmd); err != nil {
		return err
	}

	if err := r.catalog.RemoveSavedTracks(ctx, args); err != nil {
		return fmt.Errorf("failed to remove tracks: %w", err)
	}

	r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Removed %d track(s)", len(args))))
	return nil
}

func (r *Runner) writePageFooter(offset, count, total int, more bool) {
	if count == 0 {
		r.writePlain("%s\n", ui.Styles.Help("No items"))
		return
	}
	footer := fmt.Sprintf("Showing %d-%d of %d", offset+1, offset+count, total)
	if more {
		footer += " (use --offset for more)"
	}
	r.writePlain("%s\n", ui.Styles.Help(footer))
}
