package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhartinger/vitacoach-go/internal/coach"
	"github.com/jhartinger/vitacoach-go/internal/metrics"
)

// fakeTurner streams canned frames.
type fakeTurner struct {
	frames []coach.Frame
	last   coach.Request
}

func (f *fakeTurner) Stream(ctx context.Context, req coach.Request) <-chan coach.Frame {
	f.last = req
	out := make(chan coach.Frame, len(f.frames))
	for _, fr := range f.frames {
		out <- fr
	}
	close(out)
	return out
}

func (f *fakeTurner) Respond(ctx context.Context, req coach.Request) coach.Response {
	f.last = req
	var text strings.Builder
	resp := coach.Response{}
	for _, fr := range f.frames {
		text.WriteString(fr.TextDelta)
		if fr.SessionID != "" {
			resp.SessionID = fr.SessionID
		}
	}
	resp.Text = text.String()
	return resp
}

func newTestServer(t *testing.T, turner Turner) *httptest.Server {
	t.Helper()
	s := New("127.0.0.1:0", turner, metrics.NewCollector(), nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestChatReturnsAggregatedResponse(t *testing.T) {
	turner := &fakeTurner{frames: []coach.Frame{
		{TextDelta: "Hello "},
		{TextDelta: "there."},
		{Complete: true, SessionID: "sess-1"},
	}}
	ts := newTestServer(t, turner)

	body, _ := json.Marshal(coach.Request{Owner: "owner-1", Message: "hi"})
	resp, err := http.Post(ts.URL+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got coach.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Hello there.", got.Text)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "owner-1", turner.last.Owner)
}

func TestChatRejectsMissingFields(t *testing.T) {
	ts := newTestServer(t, &fakeTurner{})

	for _, body := range []string{
		`{"message": "hi"}`,
		`{"owner": "owner-1"}`,
		`not json`,
	} {
		resp, err := http.Post(ts.URL+"/chat", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
}

func TestStreamEmitsOrderedFramesOverWebSocket(t *testing.T) {
	turner := &fakeTurner{frames: []coach.Frame{
		{TextDelta: "one "},
		{TextDelta: "two "},
		{TextDelta: "three"},
		{Complete: true, SessionID: "sess-9", ConversationTitle: "Counting"},
	}}
	ts := newTestServer(t, turner)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/chat/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(coach.Request{Owner: "owner-1", Message: "count"}))

	var frames []coach.Frame
	for {
		var f coach.Frame
		require.NoError(t, conn.ReadJSON(&f))
		frames = append(frames, f)
		if f.Complete {
			break
		}
	}

	require.Len(t, frames, 4)
	assert.Equal(t, "one ", frames[0].TextDelta)
	assert.Equal(t, "two ", frames[1].TextDelta)
	assert.Equal(t, "three", frames[2].TextDelta)
	assert.True(t, frames[3].Complete)
	assert.Equal(t, "sess-9", frames[3].SessionID)
	assert.Equal(t, "Counting", frames[3].ConversationTitle)
}

func TestStreamRejectsEmptyRequestButKeepsConnection(t *testing.T) {
	turner := &fakeTurner{frames: []coach.Frame{
		{TextDelta: "ok"},
		{Complete: true},
	}}
	ts := newTestServer(t, turner)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/chat/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(coach.Request{Owner: "owner-1"}))
	var f coach.Frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.True(t, f.Complete)
	assert.NotEmpty(t, f.Error)

	// The connection stays usable for a valid request.
	require.NoError(t, conn.WriteJSON(coach.Request{Owner: "owner-1", Message: "hi"}))
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "ok", f.TextDelta)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &fakeTurner{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ok", got["status"])
}

func TestStats(t *testing.T) {
	ts := newTestServer(t, &fakeTurner{frames: []coach.Frame{{Complete: true}}})

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap metrics.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}
