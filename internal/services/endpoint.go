package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
)

var spotifyID = regexp.MustCompile(`^[0-9A-Za-z]+$`)

// buildEndpoint joins base and path and appends the non-empty query values, escaped and sorted by key.
func buildEndpoint(base, path string, query url.Values) string {
	return withQuery(strings.TrimRight(base, "/")+"/"+strings.TrimLeft(path, "/"), query)
}

// withQuery appends the non-empty values of query to endpoint.
func withQuery(endpoint string, query url.Values) string {
	kept := url.Values{}
	for key, values := range query {
		for _, v := range values {
			if v != "" {
				kept.Add(key, v)
			}
		}
	}

	if len(kept) == 0 {
		return endpoint
	}

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + kept.Encode()
}

// ParseTrackID extracts a track id from a raw id, a spotify:track:<id> URI or an open.spotify.com/track/<id> link.
func ParseTrackID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	id := input
	switch {
	case strings.HasPrefix(input, "spotify:"):
		parts := strings.Split(input, ":")
		if len(parts) != 3 || parts[1] != "track" {
			return "", fmt.Errorf("%w: %q is not a track URI", shared.ErrInvalidArgument, input)
		}
		id = parts[2]
	case strings.Contains(input, "open.spotify.com"):
		u, err := url.Parse(input)
		if err != nil || u.Host == "" {
			if u, err = url.Parse("https://" + input); err != nil {
				return "", fmt.Errorf("%w: %q: %v", shared.ErrInvalidArgument, input, err)
			}
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		id = ""
		for i := 0; i < len(segments)-1; i++ {
			if segments[i] == "track" {
				id = segments[i+1]
				break
			}
		}
		if id == "" {
			return "", fmt.Errorf("%w: %q is not a track link", shared.ErrInvalidArgument, input)
		}
	}

	if !spotifyID.MatchString(id) {
		return "", fmt.Errorf("%w: malformed track id %q", shared.ErrInvalidArgument, id)
	}
	return id, nil
}

// parseTrackIDs parses every input and enforces 1..limit entries.
func parseTrackIDs(inputs []string, limit int) ([]string, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no track ids provided", shared.ErrMissingArgument)
	}
	if len(inputs) > limit {
		return nil, fmt.Errorf("%w: at most %d track ids allowed, got %d", shared.ErrInvalidArgument, limit, len(inputs))
	}

	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id, err := ParseTrackID(in)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
