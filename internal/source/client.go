package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"alarmdesk"
)

// defaultTimeout bounds every HTTP call so one stuck source cannot stall a
// whole poll cycle.
const defaultTimeout = 10 * time.Second

// Client talks to one alarm source. A fresh short-lived token is obtained
// per operation; nothing is cached between cycles.
type Client struct {
	src    alarmdesk.Source
	client *http.Client
}

// NewClient builds a client for the given descriptor. timeout <= 0 falls
// back to the default.
func NewClient(src alarmdesk.Source, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	src.BaseURL = strings.TrimRight(src.BaseURL, "/")
	return &Client{
		src:    src,
		client: &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// RawOccurrence is one alarm row as the source reports it.
type RawOccurrence struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Site         string    `json:"site"`
	Point        string    `json:"point"`
	Value        string    `json:"value"`
	Unit         string    `json:"unit"`
	Priority     int       `json:"priority"`
	Acknowledged bool      `json:"acknowledged"`
	Discarded    bool      `json:"discarded"`
	Message      string    `json:"message"`
}

// AlarmPage is the source's paged alarm listing.
type AlarmPage struct {
	Total int             `json:"total"`
	Items []RawOccurrence `json:"items"`
}

// NotePayload mirrors a triage outcome back to the source.
type NotePayload struct {
	AlarmID string `json:"alarmId"`
	Site    string `json:"site"`
	Point   string `json:"point"`
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

// Login obtains a short-lived bearer token. Failures come back as *AuthError.
func (c *Client) Login(ctx context.Context) (string, error) {
	var resp loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/login", "", loginRequest{
		Username: c.src.Username,
		Password: c.src.Password,
	}, &resp)
	if err != nil {
		return "", &AuthError{SourceID: c.src.ID, Err: err}
	}
	if resp.Token == "" {
		return "", &AuthError{SourceID: c.src.ID, Err: errors.New("login response carried no token")}
	}
	return resp.Token, nil
}

// ListAlarms requests up to the descriptor's page size of current alarms.
// Failures come back as *FetchError.
func (c *Client) ListAlarms(ctx context.Context, token string) (AlarmPage, error) {
	path := "/api/alarms?pageSize=" + strconv.Itoa(c.src.PageSize)
	var page AlarmPage
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &page); err != nil {
		return AlarmPage{}, &FetchError{SourceID: c.src.ID, Err: err}
	}
	return page, nil
}

// Fetch runs the full per-source ingestion: login, list, map to canonical
// occurrences with the descriptor's hour offset applied.
func (c *Client) Fetch(ctx context.Context) ([]alarmdesk.Occurrence, error) {
	token, err := c.Login(ctx)
	if err != nil {
		return nil, err
	}
	page, err := c.ListAlarms(ctx, token)
	if err != nil {
		return nil, err
	}

	out := make([]alarmdesk.Occurrence, 0, len(page.Items))
	for _, raw := range page.Items {
		out = append(out, mapOccurrence(c.src, raw))
	}
	return out, nil
}

// PushNote best-effort mirrors a triage note to the source. The caller
// decides whether the note is worth sending; errors are reported, not typed.
func (c *Client) PushNote(ctx context.Context, note NotePayload) error {
	token, err := c.Login(ctx)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, "/api/alarms/note", token, note, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.src.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d from %s", resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
