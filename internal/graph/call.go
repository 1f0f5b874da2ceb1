package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CallSpec describes one paginated extraction call. Immutable per call.
type CallSpec struct {
	// ObjectID is the API object the call targets, e.g. "act_123" or a
	// business id.
	ObjectID string

	// Edge is an optional sub-resource, e.g. "campaigns" or "insights".
	Edge string

	// Fields to request, joined with commas.
	Fields []string

	// Params are extra query parameters (level, time_increment, ...).
	Params map[string]string

	// TimeRange, when set, is JSON-encoded into the time_range parameter.
	TimeRange *TimeRange

	// Limit caps the number of records returned. Zero means unbounded.
	Limit int

	// Retry knobs. Zero values fall back to the client configuration.
	MaxRetries int
	BaseDelay  time.Duration
	SleepDelay time.Duration
}

func (s CallSpec) path() string {
	if s.Edge != "" {
		return s.ObjectID + "/" + s.Edge
	}
	return s.ObjectID
}

// CallResult carries the records of a call together with how the call
// ended. Records already fetched are never discarded: a mid-pagination
// failure yields Complete=false with the accumulated pages intact.
type CallResult struct {
	Records  []Record
	Pages    int
	Complete bool
	Reason   string
}

// Call fetches all pages for the given spec.
//
// Behavior, in order:
//   - the limit is applied after every page: once len(records) reaches
//     spec.Limit the result is truncated to exactly Limit and returned
//     without fetching further pages;
//   - pagination follows paging.next until absent;
//   - a page-level failure (after retries) stops the loop but returns
//     whatever was accumulated, flagged Complete=false;
//   - retry exhaustion and fatal API errors therefore surface as an
//     empty or partial result, never as a returned error.
//
// The returned error is non-nil only for context cancellation and call
// setup problems (missing object id, token resolution failure).
func (c *Client) Call(ctx context.Context, spec CallSpec) (*CallResult, error) {
	if spec.ObjectID == "" {
		return nil, fmt.Errorf("object id is required")
	}
	token, err := c.AccessToken()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if len(spec.Fields) > 0 {
		query.Set("fields", strings.Join(spec.Fields, ","))
	}
	for k, v := range spec.Params {
		query.Set(k, v)
	}
	if spec.TimeRange != nil {
		encoded, merr := json.Marshal(spec.TimeRange)
		if merr != nil {
			return nil, fmt.Errorf("encode time_range: %w", merr)
		}
		query.Set("time_range", string(encoded))
	}
	if spec.Limit > 0 {
		query.Set("limit", strconv.Itoa(spec.Limit))
	}
	query.Set("access_token", token)

	result := &CallResult{Complete: true}
	pageURL := c.objectURL(spec.ObjectID, spec.Edge, query)

	for pageURL != "" {
		env, ferr := c.fetchPage(ctx, pageURL, spec)
		if ferr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Complete = false
			result.Reason = failureReason(ferr)
			log.Warn().
				Str("path", spec.path()).
				Str("reason", result.Reason).
				Int("records", len(result.Records)).
				Err(ferr).
				Msg("graph call stopped early, returning accumulated records")
			break
		}

		result.Pages++
		result.Records = append(result.Records, env.Data...)

		if spec.Limit > 0 && len(result.Records) >= spec.Limit {
			result.Records = result.Records[:spec.Limit]
			break
		}
		if env.Paging != nil && env.Paging.Next != "" {
			pageURL = env.Paging.Next
		} else {
			pageURL = ""
		}
	}

	log.Debug().
		Str("path", spec.path()).
		Int("records", len(result.Records)).
		Int("pages", result.Pages).
		Bool("complete", result.Complete).
		Msg("graph call finished")
	return result, nil
}

// fetchPage retrieves one page with the retry taxonomy applied:
// rate-limit class backs off exponentially, transport class linearly,
// fatal errors abort immediately.
func (c *Client) fetchPage(ctx context.Context, pageURL string, spec CallSpec) (*envelope, error) {
	maxRetries := c.maxRetries(spec)
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		body, err := c.fetchJSON(ctx, pageURL)
		if err == nil {
			var env envelope
			if uerr := json.Unmarshal(body, &env); uerr != nil {
				return nil, fmt.Errorf("decode envelope: %w", uerr)
			}
			return &env, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		apiErr, ok := AsError(err)
		if !ok {
			return nil, err
		}
		if !apiErr.Retryable() {
			log.Error().
				Str("path", spec.path()).
				Int("code", apiErr.Code).
				Int("status", apiErr.StatusCode).
				Str("message", apiErr.Message).
				Msg("fatal graph api error")
			return nil, apiErr
		}

		lastErr = apiErr
		delay := c.backoffFor(apiErr.Category, attempt, spec)
		log.Warn().
			Str("path", spec.path()).
			Str("category", apiErr.Category.String()).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("retryable graph api error, backing off")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

// GetObject fetches a single object by id (no envelope, no pagination).
// Used for probes and for resolving fresh signed media URLs.
func (c *Client) GetObject(ctx context.Context, objectID string, fields []string) (Record, error) {
	if objectID == "" {
		return nil, fmt.Errorf("object id is required")
	}
	token, err := c.AccessToken()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}
	query.Set("access_token", token)

	body, err := c.fetchJSON(ctx, c.objectURL(objectID, "", query))
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return record, nil
}

func failureReason(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Category.String()
	}
	return "error"
}
