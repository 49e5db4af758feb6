package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotx/internal/models"
	"github.com/desertthunder/spotx/internal/shared"
	th "github.com/desertthunder/spotx/internal/testing"
)

func sampleTracks() []models.Track {
	return []models.Track{
		{
			ID:          "track1",
			Name:        "Song One",
			DurationMs:  180000,
			Artists:     []models.Artist{{Name: "Artist One"}, {Name: "Feature"}},
			Album:       models.Album{Name: "Album One"},
			ExternalIDs: map[string]string{"isrc": "USRC12345678"},
		},
		{
			ID:         "track2",
			Name:       "Song, Two",
			DurationMs: 245500,
			Artists:    []models.Artist{{Name: "Artist Two"}},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("TracksToCSV", func(t *testing.T) {
		data, err := TracksToCSV(sampleTracks())
		if err != nil {
			t.Fatalf("TracksToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Name,Artists,Album,Duration,ISRC") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `track1,Song One,"Artist One, Feature",Album One,180,USRC12345678`) {
			t.Errorf("CSV missing track1 record, got: %s", output)
		}
		if !strings.Contains(output, `track2,"Song, Two",Artist Two,,245,`) {
			t.Errorf("CSV should quote names with commas, got: %s", output)
		}
	})

	t.Run("TracksToCSV Empty", func(t *testing.T) {
		data, err := TracksToCSV(nil)
		if err != nil {
			t.Fatalf("TracksToCSV failed: %v", err)
		}
		if lines := strings.Count(string(data), "\n"); lines != 1 {
			t.Errorf("expected header only, got %d lines", lines)
		}
	})

	t.Run("TracksToMarkdown", func(t *testing.T) {
		data, err := TracksToMarkdown("Saved Tracks", sampleTracks())
		if err != nil {
			t.Fatalf("TracksToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Saved Tracks\n") {
			t.Errorf("Markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing track count")
		}
		if !strings.Contains(output, "1. Artist One, Feature - Song One (Album One) [3:00]") {
			t.Errorf("Markdown missing first track, got: %s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song, Two [4:05]") {
			t.Errorf("Markdown missing second track without album, got: %s", output)
		}
	})

	t.Run("TracksToText", func(t *testing.T) {
		data, err := TracksToText("", sampleTracks())
		if err != nil {
			t.Fatalf("TracksToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Tracks: 2\n") {
			t.Errorf("Text should start with count when title is empty, got: %s", output)
		}
		if !strings.Contains(output, "1. Artist One, Feature - Song One (3:00) track1") {
			t.Errorf("Text missing first track, got: %s", output)
		}
	})

	t.Run("Render", func(t *testing.T) {
		tests := []struct {
			format   Format
			contains string
		}{
			{FormatCSV, "ID,Name"},
			{FormatMarkdown, "## Tracks"},
			{FormatText, "Tracks: 2"},
			{FormatJSON, `"name": "Song One"`},
		}

		for _, tt := range tests {
			t.Run(string(tt.format), func(t *testing.T) {
				data, err := Render(tt.format, "Title", sampleTracks())
				if err != nil {
					t.Fatalf("Render failed: %v", err)
				}
				if !strings.Contains(string(data), tt.contains) {
					t.Errorf("expected output to contain %q, got: %s", tt.contains, data)
				}
			})
		}

		data, _ := Render(FormatJSON, "", sampleTracks())
		var decoded []models.Track
		if err := json.Unmarshal(data, &decoded); err != nil || len(decoded) != 2 {
			t.Errorf("expected JSON array of 2 tracks, got %v (%v)", decoded, err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	for in, expected := range map[string]Format{"": FormatText, "CSV": FormatCSV, "md": FormatMarkdown, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != expected {
			t.Errorf("%q: expected %s, got %s (%v)", in, expected, got, err)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestFormatExtension(t *testing.T) {
	tests := map[Format]string{FormatText: "txt", FormatCSV: "csv", FormatMarkdown: "md", FormatJSON: "json", "": "txt"}
	for format, expected := range tests {
		if got := format.Extension(); got != expected {
			t.Errorf("%q: expected %s, got %s", format, expected, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "0:00", -5: "0:00", 59999: "0:59", 213573: "3:33", 3723000: "1:02:03"}
	for ms, expected := range tests {
		if got := FormatDuration(ms); got != expected {
			t.Errorf("FormatDuration(%d): expected %s, got %s", ms, expected, got)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracks.csv")

	if err := WriteFile(path, []byte("ID\n")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	th.AssertFileExists(t, path)
	if got := th.MustReadFile(t, path); got != "ID\n" {
		t.Errorf("unexpected content %q", got)
	}

	if err := WriteFile("", nil); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected missing argument, got %v", err)
	}
	if err := WriteFile(filepath.Join(dir, "missing", "x.csv"), nil); err == nil {
		t.Error("expected error writing into missing directory")
	}
}
