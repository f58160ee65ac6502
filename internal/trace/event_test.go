package trace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventEqual(t *testing.T) {
	a := NewClockNow(100, 5)
	b := NewClockNow(100, 5)
	c := NewClockNow(100, 6)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestEventEqualAcrossVariants(t *testing.T) {
	clock := NewClockNow(1, 2)
	mono := NewMonotonicNow(3)
	require.False(t, clock.Equal(mono))
}

func TestRandomBytesDefensiveCopy(t *testing.T) {
	src := []byte{1, 2, 3}
	e := NewRandomBytes(src)
	src[0] = 0xff
	require.Equal(t, byte(1), e.Bytes[0], "NewRandomBytes must copy, not alias, the input")
}

func TestInitialCwdAbsence(t *testing.T) {
	absent := NewInitialCwd(nil)
	require.True(t, absent.Equal(NewInitialCwd(nil)))

	p := "/home/guest"
	present := NewInitialCwd(&p)
	require.False(t, present.Equal(absent))

	p2 := "/home/guest"
	present2 := NewInitialCwd(&p2)
	require.True(t, present.Equal(present2))
}

func TestHTTPResponseString(t *testing.T) {
	e := NewHTTPResponse("GET", "https://api.example.com/q", nil, 200, nil, []byte("ok"))
	require.Contains(t, e.String(), "GET https://api.example.com/q -> 200")
}
