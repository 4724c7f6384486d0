/* Copyright 2025 Parishkeep Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100

	// defaultPollInterval is how often the change feed endpoint is polled
	defaultPollInterval = 5 * time.Second
)

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

// HTTPStore is a Store implementation over the parishkeep server's document
// API
type HTTPStore struct {
	// APIEndpoint is the base URL including the /api prefix
	APIEndpoint string
	// Collection scopes all documents this store reads and writes
	Collection string
	// APIKey is sent as a bearer credential
	APIKey string
	// HTTPClient is the client used for requests. Defaults to a rate-limited
	// client.
	HTTPClient *http.Client
	// PollInterval is how often the change feed is polled during Watch
	PollInterval time.Duration
}

// NewHTTPStore returns a store talking to the given endpoint
func NewHTTPStore(apiEndpoint, collection, apiKey string) *HTTPStore {
	return &HTTPStore{
		APIEndpoint:  apiEndpoint,
		Collection:   collection,
		APIKey:       apiKey,
		HTTPClient:   NewRateLimitedHTTPClient(),
		PollInterval: defaultPollInterval,
	}
}

func (s *HTTPStore) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}

	return &http.Client{}
}

func (s *HTTPStore) newReq(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", s.APIEndpoint, path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.APIKey))
	}

	return req, nil
}

// checkRespErr checks if the given http response indicates an error and
// translates the status codes the sync engine cares about into sentinel
// errors.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	switch res.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrVersionConflict
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	return &HTTPError{StatusCode: res.StatusCode, Message: string(body)}
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body []byte, dest interface{}) error {
	req, err := s.newReq(ctx, method, path, body)
	if err != nil {
		return err
	}

	res, err := s.client().Do(req)
	if err != nil {
		return errors.Wrap(err, "making http request")
	}
	defer res.Body.Close()

	if err := checkRespErr(res); err != nil {
		return err
	}

	if dest != nil {
		if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
			return errors.Wrap(err, "decoding response body")
		}
	}

	return nil
}

type writePayload struct {
	Kind    string                 `json:"kind"`
	Fields  map[string]interface{} `json:"fields"`
	Version int                    `json:"version"`
}

type writeResponse struct {
	ServerTimestamp int64 `json:"server_timestamp"`
}

type changesResponse struct {
	Changes []Change `json:"changes"`
}

// Fetch returns the current remote state of the document
func (s *HTTPStore) Fetch(ctx context.Context, id string) (Document, error) {
	var ret Document

	path := fmt.Sprintf("/v1/collections/%s/docs/%s", s.Collection, id)
	if err := s.do(ctx, "GET", path, nil, &ret); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, errors.Wrapf(err, "fetching document %s", id)
	}

	return ret, nil
}

// Write conditionally writes the document
func (s *HTTPStore) Write(ctx context.Context, doc Document, expectedServerTimestamp int64) (int64, error) {
	body, err := json.Marshal(writePayload{
		Kind:    doc.Kind,
		Fields:  doc.Fields,
		Version: doc.Version,
	})
	if err != nil {
		return 0, errors.Wrap(err, "marshalling write payload")
	}

	path := fmt.Sprintf("/v1/collections/%s/docs/%s?expected_ts=%d", s.Collection, doc.ID, expectedServerTimestamp)

	var resp writeResponse
	if err := s.do(ctx, "PUT", path, body, &resp); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return 0, ErrVersionConflict
		}
		return 0, errors.Wrapf(err, "writing document %s", doc.ID)
	}

	return resp.ServerTimestamp, nil
}

// Watch polls the change feed endpoint and emits changes after afterSeq. The
// feed survives transient request failures; it is restarted on the next poll.
func (s *HTTPStore) Watch(ctx context.Context, afterSeq int64) (<-chan Change, error) {
	interval := s.PollInterval
	if interval == 0 {
		interval = defaultPollInterval
	}

	out := make(chan Change)

	go func() {
		defer close(out)

		cursor := afterSeq
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			path := fmt.Sprintf("/v1/collections/%s/changes?after_seq=%d", s.Collection, cursor)

			var resp changesResponse
			if err := s.do(ctx, "GET", path, nil, &resp); err != nil {
				// transient; retry on the next tick
				continue
			}

			for _, c := range resp.Changes {
				select {
				case out <- c:
					cursor = c.Seq
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
