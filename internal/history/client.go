// Package history fetches per-test average runtimes from the CI
// service's test-stats endpoint and reduces them into the logical-name-
// keyed map the splitter consumes.
//
// The REST transport (Client, APIError, auth-file loading) is grounded on
// mongo-tools' release/evergreen/evergreen.go client. The statistics
// protocol itself — window, hook-vs-test separation, logical-name
// collision summing — is grounded on original_source/src/task_history.rs.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mongodb/evg-resmoke-gen/internal/errs"
)

const apiHeaderUser = "Api-User"
const apiHeaderKey = "Api-Key"

// AuthInfo is the shape of the --evg-auth-file document.
type AuthInfo struct {
	User   string `yaml:"user"`
	APIKey string `yaml:"api_key"`
}

// LoadAuthInfo reads and parses the auth file referenced by
// --evg-auth-file.
func LoadAuthInfo(path string) (AuthInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AuthInfo{}, errs.Wrap(errs.IO, path, err, "reading evg auth file")
	}

	var info AuthInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return AuthInfo{}, errs.Wrap(errs.InvalidInput, path, err, "parsing evg auth file")
	}

	return info, nil
}

// APIError reports a non-2xx response from the CI service.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed with code %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client is a minimal REST client for the Evergreen test-stats endpoint.
type Client struct {
	BaseURL    string
	Auth       AuthInfo
	HTTPClient *http.Client
}

const defaultBaseURL = "https://evergreen.mongodb.com/rest/v2"

// NewClient builds a Client for the given project auth info.
func NewClient(auth AuthInfo) *Client {
	return &Client{BaseURL: defaultBaseURL, Auth: auth, HTTPClient: http.DefaultClient}
}

type testStatRecord struct {
	TestFile        string  `json:"test_file"`
	TaskName        string  `json:"task_name"`
	Variant         string  `json:"variant"`
	Date            string  `json:"date"`
	NumPass         int     `json:"num_pass"`
	AvgDurationPass float64 `json:"avg_duration_pass"`
}

// getTestStats issues the test-stats GET request scoped to project,
// variant, and task over the given date window.
func (c *Client) getTestStats(ctx context.Context, project string, req testStatsRequest) ([]testStatRecord, error) {
	q := url.Values{}
	q.Set("after_date", req.AfterDate)
	q.Set("before_date", req.BeforeDate)
	q.Set("group_num_days", fmt.Sprintf("%d", req.GroupNumDays))
	q.Set("variants", req.Variants)
	q.Set("tasks", req.Tasks)
	q.Set("group_by", "test_task_variant")

	path := fmt.Sprintf("/projects/%s/test_stats", project)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.RemoteService, path, err, "building test-stats request")
	}
	httpReq.Header.Add(apiHeaderUser, c.Auth.User)
	httpReq.Header.Add(apiHeaderKey, c.Auth.APIKey)

	res, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errs.Wrap(errs.RemoteService, path, err, "calling test-stats endpoint")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, errs.New(errs.RemoteService, path, &APIError{
			Method: httpReq.Method,
			Path:   path,
			Status: res.StatusCode,
			Body:   string(body),
		})
	}

	var records []testStatRecord
	if err := json.NewDecoder(res.Body).Decode(&records); err != nil {
		return nil, errs.Wrap(errs.RemoteService, path, err, "decoding test-stats response")
	}

	return records, nil
}

type testStatsRequest struct {
	AfterDate    string
	BeforeDate   string
	GroupNumDays int
	Variants     string
	Tasks        string
}
