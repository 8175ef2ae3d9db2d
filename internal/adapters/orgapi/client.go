// Package orgapi is a minimal client for a GitHub-style orgs API: an org
// payload lookup, a public-repository listing and a license filter.
package orgapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Org is the subset of the org payload the client cares about.
type Org struct {
	Login    string `json:"login"`
	ReposURL string `json:"repos_url"`
}

// Repo is the subset of a repository payload the client cares about.
type Repo struct {
	Name    string   `json:"name"`
	License *License `json:"license"`
}

type License struct {
	Key string `json:"key"`
}

// Client fetches data for one organization. The org payload is fetched at
// most once per Client and memoized.
type Client struct {
	baseURL string
	orgName string
	client  *http.Client

	mu        sync.Mutex
	cachedOrg *Org
}

// NewClient returns a Client for orgName rooted at baseURL. A nil httpClient
// falls back to a default with a 5 second timeout.
func NewClient(baseURL, orgName string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		orgName: orgName,
		client:  httpClient,
	}
}

// Org returns the organization payload, hitting the API at most once for
// the lifetime of the Client.
func (c *Client) Org() (*Org, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachedOrg != nil {
		return c.cachedOrg, nil
	}

	var org Org
	if err := c.getJSON(c.baseURL+"/orgs/"+c.orgName, &org); err != nil {
		return nil, fmt.Errorf("fetch org %s: %w", c.orgName, err)
	}
	c.cachedOrg = &org
	return c.cachedOrg, nil
}

// PublicRepos lists the names of the org's public repositories. When license
// is non-empty only repositories under that license key are returned.
func (c *Client) PublicRepos(license string) ([]string, error) {
	org, err := c.Org()
	if err != nil {
		return nil, err
	}

	var repos []Repo
	if err := c.getJSON(org.ReposURL, &repos); err != nil {
		return nil, fmt.Errorf("fetch repos of %s: %w", c.orgName, err)
	}

	var names []string
	for _, repo := range repos {
		if license != "" && !HasLicense(repo, license) {
			continue
		}
		names = append(names, repo.Name)
	}
	return names, nil
}

// HasLicense reports whether repo is licensed under key.
func HasLicense(repo Repo, key string) bool {
	return repo.License != nil && repo.License.Key == key
}

func (c *Client) getJSON(url string, out any) error {
	resp, err := c.client.Get(url)
	if err != nil {
		return fmt.Errorf("GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET status=%d body=%s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
