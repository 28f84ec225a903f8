package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teamdocs/notifier/pkg/dispatch"
)

// directoryClient consumes the upstream directory service: account
// membership, user identities, the item hierarchy, public read domains
// and admin checks. It implements the dispatcher's collaborator
// interfaces and the bridge's admin checker.
type directoryClient struct {
	base string
	http *http.Client
}

func newDirectoryClient(baseURL string) *directoryClient {
	return &directoryClient{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *directoryClient) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return dispatch.ErrTargetItemMissing
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directory: %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *directoryClient) Members(ctx context.Context, accountID string) ([]string, error) {
	var out []string
	err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/members", nil, &out)
	return out, err
}

func (c *directoryClient) Groups(ctx context.Context, accountID string) ([]string, error) {
	var out []string
	err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/groups", nil, &out)
	return out, err
}

func (c *directoryClient) Users(ctx context.Context, ids []string) ([]dispatch.User, error) {
	var out []dispatch.User
	query := url.Values{"id": ids}
	err := c.get(ctx, "/users", query, &out)
	return out, err
}

func (c *directoryClient) Ancestors(ctx context.Context, itemID string) ([]string, error) {
	var out []string
	err := c.get(ctx, "/items/"+url.PathEscape(itemID)+"/ancestors", nil, &out)
	return out, err
}

func (c *directoryClient) Descendants(ctx context.Context, itemID string) ([]string, error) {
	var out []string
	err := c.get(ctx, "/items/"+url.PathEscape(itemID)+"/descendants", nil, &out)
	return out, err
}

func (c *directoryClient) Title(ctx context.Context, itemID string) (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	err := c.get(ctx, "/items/"+url.PathEscape(itemID), nil, &out)
	return out.Title, err
}

func (c *directoryClient) ReadDomain(ctx context.Context, accountID string) (string, error) {
	var out struct {
		Domain string `json:"domain"`
	}
	err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/domain", nil, &out)
	return out.Domain, err
}

func (c *directoryClient) IsAdmin(ctx context.Context, userID, accountID string) (bool, error) {
	var out struct {
		Admin bool `json:"admin"`
	}
	query := url.Values{"userId": {userID}}
	err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/admin", query, &out)
	return out.Admin, err
}
