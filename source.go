package alarmdesk

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrSourceInvalid marks a source descriptor that fails validation. It is a
// configuration problem, never part of the polling data path.
var ErrSourceInvalid = errors.New("invalid source descriptor")

// Source describes one configured alarm source. Descriptors are edited only
// through the management API; the engine reads them at the start of every
// cycle and never mutates them.
type Source struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	BaseURL    string    `json:"base_url"`
	Username   string    `json:"username"`
	Password   string    `json:"-"`
	Enabled    bool      `json:"enabled"`
	HourOffset float64   `json:"hour_offset"` // added to source timestamps
	PageSize   int       `json:"page_size"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate reports the first configuration problem found.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Label) == "" {
		return fmt.Errorf("%w: label is required", ErrSourceInvalid)
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url must be an absolute URL", ErrSourceInvalid)
	}
	if strings.TrimSpace(s.Username) == "" || s.Password == "" {
		return fmt.Errorf("%w: credentials are required", ErrSourceInvalid)
	}
	if s.PageSize < 1 || s.PageSize > 500 {
		return fmt.Errorf("%w: page_size must be in 1..500", ErrSourceInvalid)
	}
	if s.HourOffset < -12 || s.HourOffset > 14 {
		return fmt.Errorf("%w: hour_offset must be in -12..14", ErrSourceInvalid)
	}
	return nil
}
