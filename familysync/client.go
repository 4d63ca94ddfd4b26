package familysync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client moves one scope's slice of state to and from the remote family-keyed
// store. Saves are retried with growing backoff and per-attempt timeouts;
// loads surface failures to the caller, who decides whether the user sees
// them.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger

	saveAttempts    int
	backoffUnit     time.Duration
	saveTimeoutBase time.Duration
	saveTimeoutStep time.Duration
	loadTimeout     time.Duration
}

func NewClient(baseURL string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		http:            &http.Client{},
		logger:          logger,
		saveAttempts:    3,
		backoffUnit:     500 * time.Millisecond,
		saveTimeoutBase: 5 * time.Second,
		saveTimeoutStep: time.Second,
		loadTimeout:     10 * time.Second,
	}
}

// GenerateFamilyID produces a new opaque shared family token: two random
// segments, lowercase alphanumeric, comfortably past the collision bar for
// family-scale id creation.
func GenerateFamilyID() string {
	segment := func() string {
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	}
	return segment() + segment()
}

// Save posts one full scope snapshot. The returned error is reserved for
// local misuse (missing family id, bad scope, unencodable payload); transient
// network and server failures are retried up to saveAttempts times and then
// reported as ok=false.
func (c *Client) Save(ctx context.Context, familyId string, scope Scope, payload any) (bool, error) {
	if strings.TrimSpace(familyId) == "" {
		return false, errors.New("family id is empty")
	}
	if !scope.ValidForSave() {
		return false, fmt.Errorf("invalid save scope %q", scope)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("encode %s payload: %w", scope, err)
	}
	body, err := json.Marshal(SaveRequest{
		Scope:       scope,
		Data:        data,
		LastUpdated: time.Now().UnixMilli(),
	})
	if err != nil {
		return false, err
	}

	params := url.Values{}
	params.Set("familyId", familyId)
	endpoint := c.baseURL + "/?" + params.Encode()

	for attempt := 0; attempt < c.saveAttempts; attempt++ {
		timeout := c.saveTimeoutBase + time.Duration(attempt)*c.saveTimeoutStep
		if err := c.postOnce(ctx, endpoint, body, timeout); err == nil {
			return true, nil
		} else {
			c.logger.WithFields(logrus.Fields{
				"scope":   string(scope),
				"attempt": attempt + 1,
			}).Warn("sync save attempt failed: " + err.Error())
		}

		if attempt < c.saveAttempts-1 {
			backoff := c.backoffUnit * time.Duration(attempt+1)
			select {
			case <-ctx.Done():
				return false, nil
			case <-time.After(backoff):
			}
		}
	}

	c.logger.WithFields(logrus.Fields{
		"scope":    string(scope),
		"attempts": c.saveAttempts,
	}).Error("sync save exhausted retries")
	return false, nil
}

func (c *Client) postOnce(ctx context.Context, endpoint string, body []byte, timeout time.Duration) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sync api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Load fetches one scope (or "all") for a family. A family id with no remote
// record yet yields (nil, nil); that is a normal "nothing to sync yet"
// outcome, distinct from network failure, which is returned as an error.
func (c *Client) Load(ctx context.Context, familyId string, scope Scope) (*ScopeData, error) {
	if strings.TrimSpace(familyId) == "" {
		return nil, errors.New("family id is empty")
	}

	params := url.Values{}
	params.Set("familyId", familyId)
	params.Set("scope", string(scope))
	endpoint := c.baseURL + "/?" + params.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sync api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed loadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return parsed.Data, nil
}
