// Package media downloads images attached to inbound chat messages and
// turns them into data URIs that can be stored on a report.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single image download.
const DefaultTimeout = 20 * time.Second

var (
	ErrTimeout  = errors.New("media download timed out")
	ErrNotFound = errors.New("media not found")
	ErrEmpty    = errors.New("media payload is empty")
	ErrNotImage = errors.New("no image attachment")
	ErrTooLarge = errors.New("media payload too large")
)

// Attachment is one media slot of an inbound message.
type Attachment struct {
	URL         string
	ContentType string
}

// IsImage reports whether the declared content type is an image type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.ContentType)), "image/")
}

// Payload is a downloaded media body.
type Payload struct {
	Data        []byte
	ContentType string
}

// Fetcher downloads a media URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Payload, error)
}

// TwilioMediaHost serves the media of inbound Twilio messages.
const TwilioMediaHost = "api.twilio.com"

// HTTPFetcher fetches media over HTTP with basic auth, which is how Twilio
// protects media URLs. Only URLs on Hosts are fetched, so the account
// credentials never leave for a host named in a forged webhook.
type HTTPFetcher struct {
	Client   *http.Client
	Username string
	Password string
	MaxBytes int64
	Hosts    []string
}

// NewHTTPFetcher allows TwilioMediaHost plus any extra hosts.
func NewHTTPFetcher(username, password string, maxBytes int64, extraHosts ...string) *HTTPFetcher {
	return &HTTPFetcher{
		Client:   &http.Client{},
		Username: username,
		Password: password,
		MaxBytes: maxBytes,
		Hosts:    append([]string{TwilioMediaHost}, extraHosts...),
	}
}

func (f *HTTPFetcher) allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range f.Hosts {
		if host != "" && host == strings.ToLower(h) {
			return true
		}
	}
	return false
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Payload, error) {
	if !f.allowed(rawURL) {
		return nil, fmt.Errorf("media host of %q is not allowed: %w", rawURL, ErrNotFound)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("media url %q: %w", rawURL, ErrNotFound)
	}
	if f.Username != "" {
		req.SetBasicAuth(f.Username, f.Password)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("media request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone, resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("media status %d: %w", resp.StatusCode, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("media status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("read media: %w", err)
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, ErrTooLarge
	}
	return &Payload{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Ingestor picks the image out of an inbound message and encodes it.
type Ingestor struct {
	fetcher Fetcher
	timeout time.Duration
}

func NewIngestor(fetcher Fetcher, timeout time.Duration) *Ingestor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Ingestor{fetcher: fetcher, timeout: timeout}
}

// Ingest downloads the first image attachment and returns it as a
// base64 data URI.
func (i *Ingestor) Ingest(ctx context.Context, attachments []Attachment) (string, error) {
	var image *Attachment
	for idx := range attachments {
		if attachments[idx].IsImage() {
			image = &attachments[idx]
			break
		}
	}
	if image == nil {
		return "", ErrNotImage
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	payload, err := i.fetcher.Fetch(ctx, image.URL)
	if err != nil {
		if !errors.Is(err, ErrTimeout) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", err
	}
	if payload == nil || len(payload.Data) == 0 {
		return "", ErrEmpty
	}

	return DataURI(contentType(payload.ContentType, image.ContentType), payload.Data), nil
}

// DataURI wraps data as a base64 data URI of the given MIME type.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// contentType prefers the served image type and falls back to the type
// declared in the webhook.
func contentType(served, declared string) string {
	for _, candidate := range []string{served, declared} {
		mediaType, _, err := mime.ParseMediaType(candidate)
		if err == nil && strings.HasPrefix(mediaType, "image/") {
			return mediaType
		}
	}
	return "image/jpeg"
}
