// Package libib provides a patron.Client implementation backed by the Libib
// patrons API.
package libib

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"registration/pkg/domain"
	"registration/pkg/patron"
	"registration/pkg/serrors"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// DefaultBaseURL is the production Libib API root.
const DefaultBaseURL = "https://api.libib.com"

// Client talks to the Libib REST API and fulfills the patron.Client
// interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs HTTP requests to Libib
	baseURL    string       // baseURL is the API root without a trailing slash
	userID     string       // userID is sent as x-api-user
	apiKey     string       // apiKey is sent as x-api-key
}

// Register posts the patron payload to <baseURL>/patrons. A non-2xx answer
// is returned as a *patron.StatusError wrapped in serrors.ErrUpstream.
func (c *Client) Register(ctx context.Context, p patron.Payload) (*domain.PatronRecord, error) {
	bodyBytes, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/patrons", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-api-user", c.userID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrNetwork, errors.Wrap(err, "send request"), "could not reach patron api")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrNetwork, errors.Wrap(err, "read response body"), "could not reach patron api")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := stringField(b, "message")
		if msg == "" {
			msg = patron.DefaultFailureMessage
		}
		se := &patron.StatusError{StatusCode: resp.StatusCode, Message: msg}

		return nil, serrors.Wrap(serrors.ErrUpstream, se, "%s", msg)
	}

	// successful
	rec := &domain.PatronRecord{ID: stringField(b, "id")}
	if jx.Valid(b) {
		rec.Raw = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	}

	return rec, nil
}

// stringField returns the top-level key of a JSON object as a string. Numbers
// are returned in their literal form. Anything else yields "".
func stringField(b []byte, key string) string {
	var out string
	d := jx.DecodeBytes(b)
	if d.Next() != jx.Object {
		return ""
	}
	_ = d.ObjBytes(func(d *jx.Decoder, k []byte) error {
		if string(k) != key {
			return d.Skip()
		}
		switch d.Next() {
		case jx.String:
			s, err := d.Str()
			if err != nil {
				return err
			}
			out = strings.TrimSpace(s)
		case jx.Number:
			n, err := d.Num()
			if err != nil {
				return err
			}
			out = n.String()
		default:
			return d.Skip()
		}

		return nil
	})

	return out
}

// Ensure Client conforms to the patron.Client interface at compile time.
var _ patron.Client = (*Client)(nil)

// New constructs a Client for the Libib API rooted at baseURL. An empty
// baseURL selects DefaultBaseURL.
func New(httpClient *http.Client, baseURL, userID, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		apiKey:     apiKey,
	}
}
