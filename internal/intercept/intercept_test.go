package intercept

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wasm-rr/wasm-rr/internal/trace"
	"github.com/wasm-rr/wasm-rr/internal/traceerr"
)

func TestWallClockRecordThenReplay(t *testing.T) {
	rec := trace.NewRecorder()
	clock := RecordWallClock{Clock: NewSystemClock(), Recorder: rec}
	s, ns, err := clock.Now()
	require.NoError(t, err)

	events := rec.Events()
	require.Len(t, events, 1)
	require.Equal(t, trace.CallClockNow, events[0].Call)

	pb := trace.NewPlayback(events)
	replay := ReplayWallClock{Playback: pb}
	rs, rns, err := replay.Now()
	require.NoError(t, err)
	require.Equal(t, s, rs)
	require.Equal(t, ns, rns)
	require.True(t, pb.Exhausted())
}

func TestMonotonicClockRecordThenReplay(t *testing.T) {
	rec := trace.NewRecorder()
	clock := RecordMonotonicClock{Clock: NewSystemClock(), Recorder: rec}
	ns, err := clock.Now()
	require.NoError(t, err)

	pb := trace.NewPlayback(rec.Events())
	replay := ReplayMonotonicClock{Playback: pb}
	rns, err := replay.Now()
	require.NoError(t, err)
	require.Equal(t, ns, rns)
}

func TestRandomBytesLengthMismatchIsReplayError(t *testing.T) {
	rec := trace.NewRecorder()
	rec.Append(trace.NewRandomBytes([]byte{1, 2, 3, 4}))
	pb := trace.NewPlayback(rec.Events())
	replay := ReplayRandom{Playback: pb}

	_, err := replay.GetRandomBytes(16)
	require.Error(t, err)
	var mismatch *traceerr.Mismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestRandomBytesExactLengthReplays(t *testing.T) {
	rec := trace.NewRecorder()
	record := RecordRandom{Recorder: rec}
	got, err := record.GetRandomBytes(16)
	require.NoError(t, err)
	require.Len(t, got, 16)

	pb := trace.NewPlayback(rec.Events())
	replay := ReplayRandom{Playback: pb}
	replayed, err := replay.GetRandomBytes(16)
	require.NoError(t, err)
	require.Equal(t, got, replayed)
}

func TestEnvironmentCLIOneEventPerCall(t *testing.T) {
	rec := trace.NewRecorder()
	host := RecordEnvironmentCLI{Host: ProcessEnvironment{Args: []string{"prog", "a", "b"}}, Recorder: rec}

	_, err := host.GetArguments()
	require.NoError(t, err)
	_, err = host.GetArguments() // second call appends a second event under the one-event-per-call contract
	require.NoError(t, err)

	require.Len(t, rec.Events(), 2)

	pb := trace.NewPlayback(rec.Events())
	replay := ReplayEnvironmentCLI{Playback: pb}
	args, err := replay.GetArguments()
	require.NoError(t, err)
	require.Equal(t, []string{"prog", "a", "b"}, args)
	args2, err := replay.GetArguments()
	require.NoError(t, err)
	require.Equal(t, args, args2)
	require.True(t, pb.Exhausted())
}

func TestOutgoingHTTPRecordThenReplayNoNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rec := trace.NewRecorder()
	record := RecordOutgoingHTTP{Client: NewRealOutgoingHTTP(), Recorder: rec}
	resp, err := record.Send(HTTPRequest{Method: "GET", URL: srv.URL + "/q"})
	require.NoError(t, err)
	require.Equal(t, uint16(200), resp.Status)
	require.Equal(t, []byte(`{"ok":true}`), resp.Body)

	events := rec.Events()
	require.Len(t, events, 1)
	require.Equal(t, "GET", events[0].RequestMethod)

	srv.Close() // prove replay makes no network call

	pb := trace.NewPlayback(events)
	replay := ReplayOutgoingHTTP{Playback: pb}
	replayedResp, err := replay.Send(HTTPRequest{Method: "GET", URL: srv.URL + "/q"})
	require.NoError(t, err)
	require.Equal(t, resp.Status, replayedResp.Status)
	require.Equal(t, resp.Body, replayedResp.Body)
}

func TestOutgoingHTTPReplayIsPositionalNotContentAddressed(t *testing.T) {
	rec := trace.NewRecorder()
	rec.Append(trace.NewHTTPResponse("GET", "https://original.example.com/x", nil, 200, nil, []byte("hi")))
	pb := trace.NewPlayback(rec.Events())
	replay := ReplayOutgoingHTTP{Playback: pb}

	resp, err := replay.Send(HTTPRequest{Method: "POST", URL: "https://different.example.com/y"})
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), resp.Body)
}
