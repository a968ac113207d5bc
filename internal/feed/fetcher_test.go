package feed

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	c := NewClient()
	gock.InterceptClient(c.HTTPClient())
	return c
}

func TestFetch_Success(t *testing.T) {
	defer gock.Off()
	gock.New("http://feeds.example.org").
		Get("/rss").
		MatchHeader("User-Agent", userAgent).
		Reply(200).
		BodyString("<rss version=\"2.0\"></rss>")

	c := newTestClient()
	data, err := c.Fetch(context.Background(), "http://feeds.example.org/rss", 5*time.Second, 1024)

	require.NoError(t, err)
	assert.Equal(t, "<rss version=\"2.0\"></rss>", string(data))
}

func TestFetch_HTTPStatusError(t *testing.T) {
	defer gock.Off()
	gock.New("http://feeds.example.org").
		Get("/rss").
		Reply(503).
		BodyString("maintenance")

	c := newTestClient()
	_, err := c.Fetch(context.Background(), "http://feeds.example.org/rss", 5*time.Second, 1024)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, FetchHTTPStatus, fetchErr.Kind)
	assert.Equal(t, 503, fetchErr.Status)
}

func TestFetch_TooLarge(t *testing.T) {
	defer gock.Off()
	gock.New("http://feeds.example.org").
		Get("/big").
		Reply(200).
		BodyString(strings.Repeat("x", 100))

	c := newTestClient()
	_, err := c.Fetch(context.Background(), "http://feeds.example.org/big", 5*time.Second, 99)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, FetchTooLarge, fetchErr.Kind)
}

func TestFetch_CapBoundaryIsInclusive(t *testing.T) {
	defer gock.Off()
	gock.New("http://feeds.example.org").
		Get("/exact").
		Reply(200).
		BodyString(strings.Repeat("x", 100))

	c := newTestClient()
	data, err := c.Fetch(context.Background(), "http://feeds.example.org/exact", 5*time.Second, 100)

	require.NoError(t, err)
	assert.Len(t, data, 100)
}

func TestFetch_Unreachable(t *testing.T) {
	defer gock.Off()
	gock.New("http://feeds.example.org").
		Get("/down").
		ReplyError(errors.New("connection refused"))

	c := newTestClient()
	_, err := c.Fetch(context.Background(), "http://feeds.example.org/down", 5*time.Second, 1024)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, FetchUnreachable, fetchErr.Kind)
}

func TestFetch_NoRetries(t *testing.T) {
	defer gock.Off()
	gock.New("http://feeds.example.org").
		Get("/once").
		Times(1).
		ReplyError(io.ErrUnexpectedEOF)

	c := newTestClient()
	_, err := c.Fetch(context.Background(), "http://feeds.example.org/once", 5*time.Second, 1024)

	require.Error(t, err)
	assert.True(t, gock.IsDone(), "fetch must not retry within a cycle")
}
