package dbstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maukemana/photocore/internal/apperr"
)

// RestAPIConfig configures the BaaS-style adapter, which speaks a
// PostgREST-shaped query-parameter protocol directly over HTTP. No
// ecosystem client library for this exact protocol appears anywhere in the
// example corpus, so this adapter is built on net/http + encoding/json;
// see DESIGN.md for the justification.
type RestAPIConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// RestAPI is the BaaS Adapter. It encodes the internal Filter sum type back
// into the decorated-string form at the wire boundary (Design Notes §9),
// since that is the form the remote backend's query-parameter protocol
// understands.
type RestAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRestAPI builds an adapter targeting baseURL (no trailing slash).
func NewRestAPI(cfg RestAPIConfig) (*RestAPI, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, apperr.Fatal(fmt.Errorf("dbstore: restapi missing base url or key"))
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RestAPI{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}, nil
}

func (r *RestAPI) Close() error { return nil }

// filterToQuery renders filters as decorated-string query parameters. IN
// clauses are comma-joined in parentheses, matching PostgREST's own
// "in.(a,b,c)" convention's spirit while keeping this adapter's own
// decorated-key scheme from filter.go.
func filterToQuery(q url.Values, filters []Filter) error {
	for _, f := range filters {
		key, err := decoratedKey(f)
		if err != nil {
			return err
		}
		switch f.Op {
		case OpIs, OpNotIs:
			if f.Value == nil {
				q.Add(key, "null")
			} else {
				q.Add(key, fmt.Sprintf("%v", f.Value))
			}
		case OpIn:
			values, _ := f.Value.([]any)
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = fmt.Sprintf("%v", v)
			}
			q.Add(key, "("+strings.Join(parts, ",")+")")
		default:
			q.Add(key, fmt.Sprintf("%v", f.Value))
		}
	}
	return nil
}

func (r *RestAPI) do(ctx context.Context, method, path string, query url.Values, body any, out any) (int, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, apperr.Validation(fmt.Errorf("dbstore: encode body: %w", err))
		}
		reqBody = bytes.NewReader(b)
	}

	u := r.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, apperr.Fatal(fmt.Errorf("dbstore: build request: %w", err))
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, apperr.Transient(fmt.Errorf("dbstore: restapi request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, apperr.Transient(fmt.Errorf("dbstore: restapi read body: %w", err))
	}

	if resp.StatusCode >= 500 {
		return resp.StatusCode, apperr.Transient(fmt.Errorf("dbstore: restapi %d: %s", resp.StatusCode, data))
	}
	if resp.StatusCode == http.StatusConflict {
		return resp.StatusCode, apperr.Conflict(fmt.Errorf("dbstore: restapi conflict: %s", data))
	}
	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, apperr.NotFound(fmt.Errorf("dbstore: restapi not found: %s", data))
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, apperr.Validation(fmt.Errorf("dbstore: restapi %d: %s", resp.StatusCode, data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, apperr.Transient(fmt.Errorf("dbstore: decode response: %w", err))
		}
	}
	return resp.StatusCode, nil
}

func (r *RestAPI) FindOne(ctx context.Context, table string, filters []Filter, dest any) error {
	q := url.Values{"limit": []string{"1"}}
	if err := filterToQuery(q, filters); err != nil {
		return apperr.Validation(err)
	}
	var rows json.RawMessage
	if _, err := r.do(ctx, http.MethodGet, table, q, nil, &rows); err != nil {
		return err
	}
	var list []json.RawMessage
	if err := json.Unmarshal(rows, &list); err != nil {
		return apperr.Transient(fmt.Errorf("dbstore: decode findOne rows: %w", err))
	}
	if len(list) == 0 {
		return apperr.NotFound(fmt.Errorf("dbstore: %s: no rows", table))
	}
	return json.Unmarshal(list[0], dest)
}

func (r *RestAPI) FindMany(ctx context.Context, table string, filters []Filter, order []Order, limit, offset int, dest any) error {
	q := url.Values{}
	if err := filterToQuery(q, filters); err != nil {
		return apperr.Validation(err)
	}
	if len(order) > 0 {
		parts := make([]string, len(order))
		for i, o := range order {
			dir := strings.ToLower(string(o.Direction))
			if dir == "" {
				dir = "asc"
			}
			parts[i] = o.Column + "." + dir
		}
		q.Set("order", strings.Join(parts, ","))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	_, err := r.do(ctx, http.MethodGet, table, q, nil, dest)
	return err
}

func (r *RestAPI) Insert(ctx context.Context, table string, values map[string]any) (Result, error) {
	var inserted []map[string]any
	if _, err := r.do(ctx, http.MethodPost, table, nil, values, &inserted); err != nil {
		return Result{}, err
	}
	if len(inserted) == 0 {
		return Result{RowsAffected: 1}, nil
	}
	id, _ := inserted[0]["id"].(string)
	return Result{RowsAffected: 1, InsertedID: id}, nil
}

func (r *RestAPI) Update(ctx context.Context, table string, filters []Filter, values map[string]any) (Result, error) {
	values, err := r.resolveIncrements(ctx, table, filters, values)
	if err != nil {
		return Result{}, err
	}

	q := url.Values{}
	if err := filterToQuery(q, filters); err != nil {
		return Result{}, apperr.Validation(err)
	}
	var updated []map[string]any
	if _, err := r.do(ctx, http.MethodPatch, table, q, values, &updated); err != nil {
		return Result{}, err
	}
	return Result{RowsAffected: int64(len(updated))}, nil
}

// resolveIncrements turns Incr values into literal numbers by reading the
// row first. Unlike Postgres's single-statement "col = col + ?", this is a
// read-then-write: two concurrent claims can both read the same base value.
// The processing pipeline tolerates this because its claim filter also
// narrows by status, so at most one of the two racing PATCHes actually
// matches a row.
func (r *RestAPI) resolveIncrements(ctx context.Context, table string, filters []Filter, values map[string]any) (map[string]any, error) {
	hasIncr := false
	for _, v := range values {
		if _, ok := v.(Incr); ok {
			hasIncr = true
			break
		}
	}
	if !hasIncr {
		return values, nil
	}

	var current map[string]any
	if err := r.FindOne(ctx, table, filters, &current); err != nil {
		return nil, err
	}

	resolved := make(map[string]any, len(values))
	for k, v := range values {
		n, ok := v.(Incr)
		if !ok {
			resolved[k] = v
			continue
		}
		base, _ := current[k].(float64) // JSON numbers decode as float64
		resolved[k] = int64(base) + int64(n)
	}
	return resolved, nil
}

func (r *RestAPI) Delete(ctx context.Context, table string, filters []Filter) (Result, error) {
	q := url.Values{}
	if err := filterToQuery(q, filters); err != nil {
		return Result{}, apperr.Validation(err)
	}
	var deleted []map[string]any
	if _, err := r.do(ctx, http.MethodDelete, table, q, nil, &deleted); err != nil {
		return Result{}, err
	}
	return Result{RowsAffected: int64(len(deleted))}, nil
}

func (r *RestAPI) Count(ctx context.Context, table string, filters []Filter) (int64, error) {
	q := url.Values{"select": []string{"id"}}
	if err := filterToQuery(q, filters); err != nil {
		return 0, apperr.Validation(err)
	}
	var rows []map[string]any
	if _, err := r.do(ctx, http.MethodGet, table, q, nil, &rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

var _ Adapter = (*RestAPI)(nil)
