package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/transport"
	"github.com/urfave/cli/v3"
)

// APIGet performs a raw GET request.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	return r.apiRequest(ctx, cmd, transport.MethodGet)
}

// APIPost performs a raw POST request.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	return r.apiRequest(ctx, cmd, transport.MethodPost)
}

// APIPut performs a raw PUT request.
func (r *Runner) APIPut(ctx context.Context, cmd *cli.Command) error {
	return r.apiRequest(ctx, cmd, transport.MethodPut)
}

// APIDelete performs a raw DELETE request.
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	return r.apiRequest(ctx, cmd, transport.MethodDelete)
}

func (r *Runner) apiRequest(ctx context.Context, cmd *cli.Command, method transport.Method) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	query, err := parsePairs(cmd.StringSlice("query"))
	if err != nil {
		return err
	}

	form, err := parsePairs(cmd.StringSlice("form"))
	if err != nil {
		return err
	}

	data := cmd.String("data")
	if data != "" && len(form) > 0 {
		return fmt.Errorf("%w: cannot specify both --data and --form", shared.ErrInvalidArgument)
	}
	if data != "" && !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: --data is not valid JSON", shared.ErrInvalidArgument)
	}

	if err := r.ensureServices(ctx, cmd); err != nil {
		return err
	}

	req := services.RawRequest{Method: method, Path: path, Query: query, Body: data}
	if len(form) > 0 {
		req.Form = make(map[string]string, len(form))
		for k := range form {
			req.Form[k] = url.QueryEscape(form.Get(k))
		}
	}

	r.logger.Debug("api request", "method", method, "path", path)

	resp, err := r.raw.Do(ctx, req)
	if err != nil {
		return err
	}

	return r.writeBody(resp.Body, cmd.Bool("pretty"))
}

// writeBody prints a response body, indenting it when it is JSON and pretty is set.
func (r *Runner) writeBody(body string, pretty bool) error {
	if body == "" {
		return r.writePlain("(empty response)\n")
	}

	if pretty && json.Valid([]byte(body)) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(body), "", "  "); err == nil {
			body = buf.String()
		}
	}

	return r.writePlain("%s\n", strings.TrimRight(body, "\n"))
}

// parsePairs parses key=value arguments. Later duplicates are appended.
func parsePairs(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", shared.ErrInvalidArgument, pair)
		}
		values.Add(key, value)
	}
	return values, nil
}
