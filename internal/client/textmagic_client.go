package client

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

	"golang.org/x/time/rate"

	"github.com/LeventeLantos/ema-scheduler/internal/model"
	"github.com/LeventeLantos/ema-scheduler/internal/pager"
)

type Options struct {
	BaseURL    string
	Username   string
	APIKey     string
	RatePerSec int
	PageSize   int
	HTTPClient *http.Client
}

// TextMagicClient talks to the v2 REST API of the messaging service.
type TextMagicClient struct {
	baseURL  string
	username string
	apiKey   string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
}

func NewTextMagicClient(opts Options) *TextMagicClient {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}

	return &TextMagicClient{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		username: opts.Username,
		apiKey:   opts.APIKey,
		pageSize: pageSize,
		client:   hc,
		limiter:  rate.NewLimiter(limit, max(opts.RatePerSec, 1)),
	}
}

type listResponse[T any] struct {
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	Limit     int `json:"limit"`
	Resources []T `json:"resources"`
}

type createMessageRequest struct {
	TemplateID  int64  `json:"templateId"`
	Contacts    string `json:"contacts"`
	SendingTime int64  `json:"sendingTime"`
}

func (c *TextMagicClient) ListContacts(ctx context.Context, page int) (pager.Page[model.Contact], error) {
	return list[model.Contact](ctx, c, "list contacts", "/api/v2/contacts", page, nil)
}

func (c *TextMagicClient) GetContact(ctx context.Context, id int64) (model.Contact, error) {
	var out model.Contact
	err := c.do(ctx, "get contact", http.MethodGet, "/api/v2/contacts/"+strconv.FormatInt(id, 10), nil, nil, http.StatusOK, &out)
	return out, err
}

// ListSchedules lists scheduled messages ordered by next send time, earliest
// first. Schedules that already fired have no next send time and sort last.
func (c *TextMagicClient) ListSchedules(ctx context.Context, page int) (pager.Page[model.Schedule], error) {
	q := url.Values{}
	q.Set("orderBy", "nextSend")
	q.Set("direction", "asc")
	return list[model.Schedule](ctx, c, "list schedules", "/api/v2/schedules", page, q)
}

func (c *TextMagicClient) ListTemplates(ctx context.Context, page int) (pager.Page[model.Template], error) {
	return list[model.Template](ctx, c, "list templates", "/api/v2/templates", page, nil)
}

func (c *TextMagicClient) CreateScheduledMessage(ctx context.Context, templateID, contactID int64, sendAt time.Time) (model.ScheduledMessage, error) {
	var out model.ScheduledMessage
	body := createMessageRequest{
		TemplateID:  templateID,
		Contacts:    strconv.FormatInt(contactID, 10),
		SendingTime: sendAt.Unix(),
	}
	err := c.do(ctx, "create scheduled message", http.MethodPost, "/api/v2/messages", nil, body, http.StatusCreated, &out)
	return out, err
}

func list[T any](ctx context.Context, c *TextMagicClient, op, path string, page int, q url.Values) (pager.Page[T], error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.pageSize))

	var lr listResponse[T]
	if err := c.do(ctx, op, http.MethodGet, path, q, nil, http.StatusOK, &lr); err != nil {
		return pager.Page[T]{}, err
	}
	return pager.Page[T]{Items: lr.Resources, PageCount: lr.PageCount}, nil
}

func (c *TextMagicClient) do(ctx context.Context, op, method, path string, q url.Values, in any, wantStatus int, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &ExternalServiceError{Op: op, Err: err}
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &ExternalServiceError{Op: op, Err: err}
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return &ExternalServiceError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-TM-Username", c.username)
	req.Header.Set("X-TM-Key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &ExternalServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != wantStatus {
		return &ExternalServiceError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ExternalServiceError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("failed to decode json: %w body=%q", err, string(body)),
		}
	}
	return nil
}
