package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
	tu "github.com/desertthunder/spotx/internal/testing"
	"github.com/desertthunder/spotx/internal/transport"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const (
	testTrackID = "4iV5W9uYEdYUVa79Axb7Rh"
	otherID     = "1301WleyT98MSxVHPZCA6M"
)

const trackJSON = `{
	"id": "4iV5W9uYEdYUVa79Axb7Rh",
	"name": "Test Song",
	"uri": "spotify:track:4iV5W9uYEdYUVa79Axb7Rh",
	"duration_ms": 210000,
	"artists": [{"id": "a1", "name": "Artist A"}, {"id": "a2", "name": "Artist B"}],
	"album": {"id": "al1", "name": "Test Album"},
	"external_ids": {"isrc": "USUM71703861"}
}`

func newTestRunner(t *testing.T, responses map[string]string) (*Runner, *bytes.Buffer, *tu.RecordingServer) {
	t.Helper()

	server := tu.NewRecordingServer(t, responses)

	config := shared.DefaultConfig()
	config.API.BaseURL = server.URL
	config.API.RetryOnServerErrorTimes = transport.RetryDisabled
	config.Credentials.Spotify.AccessToken = "test-token"
	config.Cache.Enabled = false
	config.Database.Path = filepath.Join(t.TempDir(), "cache.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
	})
	t.Cleanup(func() { runner.Close() })

	return runner, output, server
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{
		Name:     "spotx",
		Flags:    rootFlags(),
		Commands: r.register(),
		Writer:   io.Discard,
	}
	return app.Run(context.Background(), append([]string{"spotx"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpTransport := transport.NewHTTPTransport(nil, time.Second)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Transport:  httpTransport,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected config path custom.toml, got %s", runner.configPath)
			}
			if runner.transport != httpTransport {
				t.Error("expected transport to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.transport == nil {
				t.Error("expected default transport")
			}
			if runner.catalog != nil || runner.raw != nil {
				t.Error("expected services to be built lazily")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
		commands := runner.register()

		want := []string{"config", "setup", "tracks", "me", "playlists", "library", "cache", "api"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("expected command %d to be %s, got %s", i, name, commands[i].Name)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"a": 1}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\"a\":1}\n" {
				t.Errorf("expected compact JSON, got %q", output.String())
			}
		})

		t.Run("write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]int{"a": 1}, true); err == nil {
				t.Error("expected error for failing writer")
			}
		})

		t.Run("newline failure", func(t *testing.T) {
			writer := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &writer})

			if err := runner.writeJSON(map[string]int{"a": 1}, true); err == nil {
				t.Error("expected error when newline write fails")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writePlain("hello %s", "world")
		runner.writePlainln("next")

		if output.String() != "hello world\nnext\n" {
			t.Errorf("expected formatted output, got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected error for failing writer")
		}
	})
}

func TestExecutorOptions(t *testing.T) {
	t.Run("maps api section", func(t *testing.T) {
		opts, err := executorOptions(shared.APIConfig{
			RetryOnServerErrorTimes: -1,
			RetryWhenRateLimited:    false,
			AutomaticRefresh:        true,
			Debug:                   true,
			JSONMode:                "strict",
			RequestsPerSecond:       2.5,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if opts.RetryOnServerErrorTimes != transport.RetryUnlimited {
			t.Errorf("expected unlimited budget, got %d", opts.RetryOnServerErrorTimes)
		}
		if opts.RetryWhenRateLimited {
			t.Error("expected rate limit retry off")
		}
		if !opts.AutomaticRefresh || !opts.Debug {
			t.Error("expected refresh and debug on")
		}
		if opts.ParseMode != transport.Strict {
			t.Errorf("expected strict mode, got %v", opts.ParseMode)
		}
		if opts.RequestsPerSecond != 2.5 {
			t.Errorf("expected 2.5 requests per second, got %v", opts.RequestsPerSecond)
		}
	})

	t.Run("rejects unknown json mode", func(t *testing.T) {
		_, err := executorOptions(shared.APIConfig{JSONMode: "loose"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestTokenProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("static access token", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})
		config := shared.DefaultConfig()
		config.Credentials.Spotify.AccessToken = "abc"

		provider, err := runner.tokenProvider(ctx, config)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := provider.(transport.StaticTokenProvider); !ok {
			t.Errorf("expected StaticTokenProvider, got %T", provider)
		}
		if provider.AccessToken() != "abc" {
			t.Errorf("expected token abc, got %s", provider.AccessToken())
		}
	})

	t.Run("refresh token persists refreshed tokens", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{ConfigPath: path, Logger: shared.NewLogger(io.Discard)})

		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = "client"
		config.Credentials.Spotify.ClientSecret = "secret"
		config.Credentials.Spotify.AccessToken = "old"
		config.Credentials.Spotify.RefreshToken = "refresh"

		provider, err := runner.tokenProvider(ctx, config)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		oauthProvider, ok := provider.(*transport.OAuthTokenProvider)
		if !ok {
			t.Fatalf("expected OAuthTokenProvider, got %T", provider)
		}
		if oauthProvider.AccessToken() != "old" {
			t.Errorf("expected stored access token, got %s", oauthProvider.AccessToken())
		}

		if err := oauthProvider.OnRefresh(&oauth2.Token{AccessToken: "new"}); err != nil {
			t.Fatalf("expected no error from OnRefresh, got %v", err)
		}

		saved, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("expected saved config, got %v", err)
		}
		if saved.Credentials.Spotify.AccessToken != "new" {
			t.Errorf("expected saved access token new, got %s", saved.Credentials.Spotify.AccessToken)
		}
		if saved.Credentials.Spotify.RefreshToken != "refresh" {
			t.Errorf("expected refresh token kept, got %s", saved.Credentials.Spotify.RefreshToken)
		}
	})

	t.Run("placeholders are not credentials", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})

		_, err := runner.tokenProvider(ctx, shared.DefaultConfig())
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit path must exist", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.toml")
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: io.Discard})

		err := run(runner, "--config", missing, "me")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
		if err == nil || !strings.Contains(err.Error(), missing) {
			t.Errorf("expected error to name %s, got %v", missing, err)
		}
	})

	t.Run("default path falls back to defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: io.Discard})

		err := run(runner, "me")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials from the default config, got %v", err)
		}
		if runner.config == nil || runner.config.API.BaseURL != shared.DefaultConfig().API.BaseURL {
			t.Errorf("expected default config to be loaded, got %+v", runner.config)
		}
	})
}

func TestTrackCommands(t *testing.T) {
	t.Run("get prints a summary", func(t *testing.T) {
		runner, output, server := newTestRunner(t, map[string]string{"/tracks/" + testTrackID: trackJSON})

		if err := run(runner, "tracks", "get", "spotify:track:"+testTrackID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, want := range []string{"Test Song", "Artist A, Artist B", "Test Album", "3:30", "USUM71703861"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected output to contain %q, got %q", want, output.String())
			}
		}

		last := server.Last(t)
		if last.Authorization != "Bearer test-token" {
			t.Errorf("expected bearer token, got %q", last.Authorization)
		}
		if last.Query.Has("market") {
			t.Error("expected no market query without --market")
		}
	})

	t.Run("get as JSON with market", func(t *testing.T) {
		runner, output, server := newTestRunner(t, map[string]string{"/tracks/" + testTrackID: trackJSON})

		if err := run(runner, "tracks", "get", "--json", "--pretty=false", "--market", "SE", testTrackID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(output.Bytes(), &decoded); err != nil {
			t.Fatalf("expected JSON output, got %v", err)
		}
		if decoded["id"] != testTrackID {
			t.Errorf("expected id %s, got %v", testTrackID, decoded["id"])
		}
		if got := server.Last(t).Query.Get("market"); got != "SE" {
			t.Errorf("expected market SE, got %q", got)
		}
	})

	t.Run("get without an argument", func(t *testing.T) {
		runner, _, server := newTestRunner(t, nil)

		err := run(runner, "tracks", "get")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if len(server.Requests()) != 0 {
			t.Error("expected no request to be sent")
		}
	})

	t.Run("get unknown track", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, nil)

		if err := run(runner, "tracks", "get", testTrackID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if want := "Track " + testTrackID + " not found\n"; output.String() != want {
			t.Errorf("expected %q, got %q", want, output.String())
		}

		output.Reset()
		if err := run(runner, "tracks", "get", "--json", testTrackID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "null\n" {
			t.Errorf("expected null, got %q", output.String())
		}
	})

	t.Run("get forbidden track", func(t *testing.T) {
		runner, _, server := newTestRunner(t, nil)
		server.Fail("/tracks/"+testTrackID, 403, `{"error":{"status":403,"message":"Forbidden"}}`)

		err := run(runner, "tracks", "get", testTrackID)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}

		var badRequest *transport.BadRequestError
		if !errors.As(err, &badRequest) {
			t.Fatalf("expected BadRequestError, got %T", err)
		}
		if badRequest.API == nil || badRequest.API.Status != 403 {
			t.Errorf("expected parsed 403 API error, got %+v", badRequest.API)
		}
	})

	t.Run("several as CSV skips unknown ids", func(t *testing.T) {
		runner, output, server := newTestRunner(t, map[string]string{
			"/tracks": `{"tracks":[` + trackJSON + `,null]}`,
		})

		if err := run(runner, "tracks", "several", "--format", "csv", testTrackID, otherID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header and one row, got %d lines: %q", len(lines), output.String())
		}
		if lines[0] != "ID,Name,Artists,Album,Duration,ISRC" {
			t.Errorf("expected CSV header, got %q", lines[0])
		}
		if got := server.Last(t).Query.Get("ids"); got != testTrackID+","+otherID {
			t.Errorf("expected joined ids, got %q", got)
		}
	})

	t.Run("several to file", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, map[string]string{
			"/tracks": `{"tracks":[` + trackJSON + `]}`,
		})
		path := filepath.Join(t.TempDir(), "tracks.md")

		if err := run(runner, "tracks", "several", "--format", "md", "--output", path, testTrackID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if output.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", output.String())
		}
		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "Artist A, Artist B - Test Song (Test Album) [3:30]") {
			t.Errorf("expected markdown entry, got %q", content)
		}
	})

	t.Run("features table", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, map[string]string{
			"/audio-features/" + testTrackID: `{"id":"` + testTrackID + `","tempo":118.2,"key":1,"mode":1,"energy":0.5}`,
		})

		if err := run(runner, "tracks", "features", testTrackID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, want := range []string{testTrackID, "118.2", "C♯/D♭", "major", "0.50"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected output to contain %q, got %q", want, output.String())
			}
		}
	})

	t.Run("analysis summary", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, map[string]string{
			"/audio-analysis/" + testTrackID: `{"track":{"duration":207.96,"tempo":98.002,"key":5,"mode":0,"time_signature":4},` +
				`"bars":[{"start":0.1}],"beats":[{"start":0.1},{"start":0.6}]}`,
		})

		if err := run(runner, "tracks", "analysis", testTrackID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, want := range []string{"98.0 BPM", "F minor", "4/4", "Bars: 1", "Beats: 2"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected output to contain %q, got %q", want, output.String())
			}
		}
	})
}

func TestUserCommands(t *testing.T) {
	t.Run("me", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, map[string]string{
			"/me": `{"id":"user1","display_name":"Listener","country":"SE","followers":{"total":7}}`,
		})

		if err := run(runner, "me"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, want := range []string{"Listener", "user1", "SE", "Followers: 7"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected output to contain %q, got %q", want, output.String())
			}
		}
	})

	t.Run("app-only token cannot act for a user", func(t *testing.T) {
		for _, args := range [][]string{
			{"me"},
			{"playlists", "list"},
			{"library", "list"},
			{"library", "save", testTrackID},
			{"library", "remove", testTrackID},
		} {
			t.Run(strings.Join(args, " "), func(t *testing.T) {
				runner, _, server := newTestRunner(t, map[string]string{"/me": `{"id":"user1"}`})
				runner.appOnly = true

				if err := run(runner, args...); !errors.Is(err, shared.ErrNotAuthenticated) {
					t.Errorf("expected ErrNotAuthenticated, got %v", err)
				}
				if n := len(server.Requests()); n != 0 {
					t.Errorf("expected no requests, got %d", n)
				}
			})
		}
	})

	t.Run("playlists list", func(t *testing.T) {
		runner, output, server := newTestRunner(t, map[string]string{
			"/me/playlists": `{"items":[{"id":"pl1","name":"Road Trip","owner":{"display_name":"Listener"},` +
				`"tracks":{"total":12}}],"limit":10,"offset":5,"total":6,"next":null}`,
		})

		if err := run(runner, "playlists", "list", "--limit", "10", "--offset", "5"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, want := range []string{"Road Trip", "pl1", "12", "Showing 6-6 of 6"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected output to contain %q, got %q", want, output.String())
			}
		}

		query := server.Last(t).Query
		if query.Get("limit") != "10" || query.Get("offset") != "5" {
			t.Errorf("expected limit 10 and offset 5, got %v", query)
		}
	})

	t.Run("playlist get as text", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, map[string]string{
			"/playlists/pl1": `{"id":"pl1","name":"Road Trip","tracks":{"items":[{"track":` + trackJSON + `},{"track":null}],"total":2}}`,
		})

		if err := run(runner, "playlists", "get", "pl1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.HasPrefix(output.String(), "Road Trip\nTracks: 1\n") {
			t.Errorf("expected playlist heading with one track, got %q", output.String())
		}
	})

	t.Run("playlists export", func(t *testing.T) {
		runner, output, server := newTestRunner(t, map[string]string{
			"/playlists/pl1": `{"id":"pl1","name":"Road Trip","tracks":{"items":[{"track":` + trackJSON + `}],"total":1,"next":null}}`,
		})
		dir := t.TempDir()

		if err := run(runner, "playlists", "export", "--format", "csv", "--dir", dir, "--rate", "100", "pl1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "pl1.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(output.String(), "Road Trip (1 tracks)") || !strings.Contains(output.String(), "Exported 1 of 1") {
			t.Errorf("expected progress and summary, got %q", output.String())
		}
		if n := len(server.Requests()); n != 1 {
			t.Errorf("expected a single page request, got %d", n)
		}
	})

	t.Run("library list as JSON", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, map[string]string{
			"/me/tracks": `{"items":[{"added_at":"2024-01-01T00:00:00Z","track":` + trackJSON + `}],"total":1}`,
		})

		if err := run(runner, "library", "list", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var tracks []map[string]any
		if err := json.Unmarshal(output.Bytes(), &tracks); err != nil {
			t.Fatalf("expected JSON array, got %v", err)
		}
		if len(tracks) != 1 || tracks[0]["name"] != "Test Song" {
			t.Errorf("expected one saved track, got %v", tracks)
		}
	})

	t.Run("library save and remove", func(t *testing.T) {
		runner, output, server := newTestRunner(t, map[string]string{"/me/tracks": ""})

		if err := run(runner, "library", "save", testTrackID, "https://open.spotify.com/track/"+otherID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		saved := server.Last(t)
		if saved.Method != "PUT" {
			t.Errorf("expected PUT, got %s", saved.Method)
		}
		if saved.Body != `{"ids":["`+testTrackID+`","`+otherID+`"]}` {
			t.Errorf("expected ids body, got %s", saved.Body)
		}

		if err := run(runner, "library", "remove", testTrackID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if removed := server.Last(t); removed.Method != "DELETE" {
			t.Errorf("expected DELETE, got %s", removed.Method)
		}

		if !strings.Contains(output.String(), "Saved 2 track(s)") || !strings.Contains(output.String(), "Removed 1 track(s)") {
			t.Errorf("expected confirmations, got %q", output.String())
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get with query", func(t *testing.T) {
		runner, output, server := newTestRunner(t, map[string]string{"/browse/new-releases": `{"albums":{"total":3}}`})

		if err := run(runner, "api", "get", "--query", "limit=2", "--query", "country=SE", "/browse/new-releases"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if output.String() != "{\n  \"albums\": {\n    \"total\": 3\n  }\n}\n" {
			t.Errorf("expected indented body, got %q", output.String())
		}

		last := server.Last(t)
		if last.Method != "GET" || last.Query.Get("limit") != "2" || last.Query.Get("country") != "SE" {
			t.Errorf("expected GET with query, got %+v", last)
		}
	})

	t.Run("post form", func(t *testing.T) {
		runner, _, server := newTestRunner(t, map[string]string{"/echo": `{}`})

		if err := run(runner, "api", "post", "--form", "name=Road Trip", "--form", "public=false", "/echo"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if body := server.Last(t).Body; body != "name=Road+Trip&public=false" {
			t.Errorf("expected encoded form body, got %q", body)
		}
	})

	t.Run("put json", func(t *testing.T) {
		runner, output, server := newTestRunner(t, map[string]string{"/me/player/volume": ""})

		if err := run(runner, "api", "put", "--data", `{"volume_percent":50}`, "/me/player/volume"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		last := server.Last(t)
		if last.Method != "PUT" || last.Body != `{"volume_percent":50}` {
			t.Errorf("expected PUT with JSON body, got %+v", last)
		}
		if output.String() != "(empty response)\n" {
			t.Errorf("expected empty response note, got %q", output.String())
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{"missing path", []string{"api", "get"}, shared.ErrMissingArgument},
			{"bad query pair", []string{"api", "get", "--query", "limit", "/x"}, shared.ErrInvalidArgument},
			{"bad JSON", []string{"api", "post", "--data", "{", "/x"}, shared.ErrInvalidArgument},
			{"data and form", []string{"api", "post", "--data", "{}", "--form", "a=b", "/x"}, shared.ErrInvalidArgument},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runner, _, server := newTestRunner(t, nil)

				if err := run(runner, tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if len(server.Requests()) != 0 {
					t.Error("expected no request to be sent")
				}
			})
		}
	})
}

func TestCacheCommands(t *testing.T) {
	runner, output, server := newTestRunner(t, map[string]string{"/tracks/" + testTrackID: trackJSON})
	runner.config.Cache.Enabled = true

	for range 2 {
		if err := run(runner, "tracks", "get", testTrackID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if n := len(server.Requests()); n != 1 {
		t.Errorf("expected second lookup to be served from cache, got %d requests", n)
	}

	output.Reset()
	if err := run(runner, "cache", "list"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(output.String(), testTrackID) || !strings.Contains(output.String(), "USUM71703861") {
		t.Errorf("expected cached track in listing, got %q", output.String())
	}

	output.Reset()
	if err := run(runner, "cache", "list", "--json", "--isrc", "NOPE"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.TrimSpace(output.String()) != "[]" {
		t.Errorf("expected empty JSON list, got %q", output.String())
	}

	output.Reset()
	if err := run(runner, "cache", "clear"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(output.String(), "Removed 1 cached track(s)") {
		t.Errorf("expected purge count, got %q", output.String())
	}
}

func TestSetupCommands(t *testing.T) {
	t.Run("config init", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

		if err := run(runner, "--config", path, "config", "init"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := run(runner, "--config", path, "config", "init"); err == nil {
			t.Error("expected error for existing config")
		}

		if err := run(runner, "--config", path, "config", "init", "--force"); err != nil {
			t.Errorf("expected --force to overwrite, got %v", err)
		}
	})

	t.Run("setup database", func(t *testing.T) {
		runner, output, _ := newTestRunner(t, nil)

		if err := run(runner, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, runner.config.Database.Path)
		if !strings.Contains(output.String(), "Track cache ready") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("parsePairs", func(t *testing.T) {
		values, err := parsePairs([]string{"a=1", "a=2", "b=x=y", "c="})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(values["a"]) != 2 || values.Get("b") != "x=y" || !values.Has("c") {
			t.Errorf("unexpected values: %v", values)
		}

		if _, err := parsePairs([]string{"=1"}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("keyName", func(t *testing.T) {
		tests := map[int]string{-1: "-", 0: "C", 9: "A", 11: "B", 12: "-"}
		for key, want := range tests {
			if got := keyName(key); got != want {
				t.Errorf("expected keyName(%d) = %s, got %s", key, want, got)
			}
		}
	})
}
