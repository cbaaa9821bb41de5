// Package jenkins looks up run state through the Blue Ocean REST API.
package jenkins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LISSConsulting/usain/internal/run"
)

// ErrNotFound is returned when Jenkins has no such pipeline or run.
var ErrNotFound = errors.New("jenkins: run not found")

// Client fetches runs from a single Jenkins organization.
type Client struct {
	baseURL  string
	org      string
	username string
	token    string
	http     *http.Client
}

// New creates a Client. username and token enable basic auth when both are
// set. A zero timeout falls back to 10 seconds.
func New(baseURL, org, username, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if org == "" {
		org = "jenkins"
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		org:      org,
		username: username,
		token:    token,
		http:     &http.Client{Timeout: timeout},
	}
}

// blueRun is the subset of the Blue Ocean run resource we read.
type blueRun struct {
	ID       string `json:"id"`
	Pipeline string `json:"pipeline"`
	State    string `json:"state"`
	Result   string `json:"result"`
}

// Run fetches the current state of pipeline run id. Folder pipelines are
// given with slashes, e.g. "team/app".
func (c *Client) Run(ctx context.Context, pipeline, id string) (run.Run, error) {
	u := c.runURL(pipeline, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return run.Run{}, fmt.Errorf("jenkins: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" && c.token != "" {
		req.SetBasicAuth(c.username, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return run.Run{}, fmt.Errorf("jenkins: get %s #%s: %w", pipeline, id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return run.Run{}, fmt.Errorf("%w: %s #%s", ErrNotFound, pipeline, id)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return run.Run{}, fmt.Errorf("jenkins: get %s #%s: %s: %s",
			pipeline, id, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var br blueRun
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return run.Run{}, fmt.Errorf("jenkins: decode %s #%s: %w", pipeline, id, err)
	}
	return toRun(pipeline, id, br)
}

// runURL builds the Blue Ocean run URL. Each folder segment of pipeline
// becomes its own /pipelines/<name> element.
func (c *Client) runURL(pipeline, id string) string {
	segs := strings.Split(strings.Trim(pipeline, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/blue/rest/organizations/%s/pipelines/%s/runs/%s/",
		c.baseURL, url.PathEscape(c.org), strings.Join(segs, "/pipelines/"), url.PathEscape(id))
}

func toRun(pipeline, id string, br blueRun) (run.Run, error) {
	state, err := run.ParseState(br.State)
	if err != nil {
		return run.Run{}, fmt.Errorf("jenkins: %s #%s: %w", pipeline, id, err)
	}
	r := run.Run{Pipeline: pipeline, ID: id, State: state}
	if br.ID != "" {
		r.ID = br.ID
	}
	// Blue Ocean reports UNKNOWN until the run ends.
	if br.Result != "" && br.Result != "UNKNOWN" {
		r.Result = br.Result
	}
	return r, nil
}
