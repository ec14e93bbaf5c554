package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(make([]byte, 64))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIngest_EncodesFirstImage(t *testing.T) {
	srv := newMediaServer(t)
	ingestor := NewIngestor(NewHTTPFetcher("AC123", "secret", 1024, "127.0.0.1"), time.Second)

	uri, err := ingestor.Ingest(context.Background(), []Attachment{
		{URL: srv.URL + "/missing", ContentType: "audio/ogg"},
		{URL: srv.URL + "/image", ContentType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw==", uri)
}

func TestIngest_Failures(t *testing.T) {
	srv := newMediaServer(t)
	fetcher := NewHTTPFetcher("AC123", "secret", 16, "127.0.0.1")
	ingestor := NewIngestor(fetcher, 100*time.Millisecond)

	tests := []struct {
		name        string
		attachments []Attachment
		want        error
	}{
		{"no attachments", nil, ErrNotImage},
		{"not an image", []Attachment{{URL: srv.URL + "/image", ContentType: "video/mp4"}}, ErrNotImage},
		{"missing", []Attachment{{URL: srv.URL + "/missing", ContentType: "image/png"}}, ErrNotFound},
		{"empty body", []Attachment{{URL: srv.URL + "/empty", ContentType: "image/png"}}, ErrEmpty},
		{"too slow", []Attachment{{URL: srv.URL + "/slow", ContentType: "image/png"}}, ErrTimeout},
		{"too large", []Attachment{{URL: srv.URL + "/big", ContentType: "image/jpeg"}}, ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := ingestor.Ingest(context.Background(), tt.attachments)
			assert.Empty(t, uri)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestHTTPFetcher_OnlyAllowedHostsSeeCredentials(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name string
		url  string
	}{
		{"unlisted host", srv.URL + "/image"},
		{"lookalike host", "https://api.twilio.com.example.net/Media/ME1"},
		{"other scheme", "ftp://api.twilio.com/Media/ME1"},
		{"garbage", "::not a url"},
	}
	fetcher := NewHTTPFetcher("AC123", "secret", 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetcher.Fetch(context.Background(), tt.url)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
	assert.Zero(t, hits, "no request leaves for an unlisted host")

	assert.True(t, fetcher.allowed("https://API.twilio.com/2010-04-01/Accounts/AC1/Messages/MM1/Media/ME1"))
}

type stubFetcher struct {
	payload *Payload
	err     error
}

func (s stubFetcher) Fetch(ctx context.Context, url string) (*Payload, error) {
	return s.payload, s.err
}

func TestIngest_FallsBackToDeclaredType(t *testing.T) {
	ingestor := NewIngestor(stubFetcher{payload: &Payload{Data: []byte("x"), ContentType: "application/octet-stream"}}, 0)

	uri, err := ingestor.Ingest(context.Background(), []Attachment{{URL: "u", ContentType: "image/webp"}})
	require.NoError(t, err)
	assert.Equal(t, "data:image/webp;base64,eA==", uri)
}

func TestIngest_PassesThroughFetchErrors(t *testing.T) {
	boom := errors.New("connection reset")
	ingestor := NewIngestor(stubFetcher{err: boom}, time.Second)

	_, err := ingestor.Ingest(context.Background(), []Attachment{{URL: "u", ContentType: "image/jpeg"}})
	assert.ErrorIs(t, err, boom)
}
