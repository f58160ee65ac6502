// random.go — Random interception: record delegates to the host's secure generator and logs
// the exact bytes/value returned; replay consumes RandomBytes/RandomU64 events, asserting a
// requested RandomBytes length matches the recorded blob length exactly (spec section 4.5).
package intercept

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/wasm-rr/wasm-rr/internal/trace"
	"github.com/wasm-rr/wasm-rr/internal/traceerr"
)

// SecureRandom is the real host randomness capability used during record, backed by
// crypto/rand the way wazero's experimental sys context backs get-random-bytes.
type SecureRandom struct{}

// RecordRandom reads from crypto/rand (the source SecureRandom stands for; the Source field
// is not consulted), logs the exact bytes or value returned, and returns it to the guest.
type RecordRandom struct {
	Source   SecureRandom
	Recorder *trace.Recorder
}

func (r RecordRandom) GetRandomBytes(length uint32) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return nil, traceerr.WrapIO("random.get-random-bytes", err)
	}
	r.Recorder.Append(trace.NewRandomBytes(buf))
	return buf, nil
}

func (r RecordRandom) GetRandomU64() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, traceerr.WrapIO("random.get-random-u64", err)
	}
	v := binary.LittleEndian.Uint64(buf[:])
	r.Recorder.Append(trace.NewRandomU64(v))
	return v, nil
}

// ReplayRandom consumes RandomBytes/RandomU64 events from a trace.Playback, performing no
// real randomness read.
type ReplayRandom struct {
	Playback *trace.Playback
}

func (r ReplayRandom) GetRandomBytes(length uint32) ([]byte, error) {
	e, err := r.Playback.Next("random.get-random-bytes", trace.CallRandomBytes)
	if err != nil {
		return nil, err
	}
	if uint32(len(e.Bytes)) != length {
		return nil, &traceerr.Mismatch{
			Interface: "random.get-random-bytes",
			Expected:  fmt.Sprintf("random_bytes(len=%d)", length),
			Observed:  fmt.Sprintf("random_bytes(len=%d)", len(e.Bytes)),
			Index:     r.Playback.Pos() - 1,
		}
	}
	return e.Bytes, nil
}

func (r ReplayRandom) GetRandomU64() (uint64, error) {
	e, err := r.Playback.Next("random.get-random-u64", trace.CallRandomU64)
	if err != nil {
		return 0, err
	}
	return e.U64, nil
}

var (
	_ Random = RecordRandom{}
	_ Random = ReplayRandom{}
)
