package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broadcastd/internal/registry"
	"broadcastd/pkg/types"
)

type fakeSink struct {
	received [][]byte
	err      error
	closed   bool
}

func (f *fakeSink) Send(payload []byte) error {
	cp := append([]byte(nil), payload...)
	f.received = append(f.received, cp)
	return f.err
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

// A client appears in the registry between its accept and its disconnect,
// and in no other interval.
func TestRegistryMembershipLifecycle(t *testing.T) {
	r := registry.New()
	h := types.Handle(1)

	assert.Equal(t, 0, r.Size())
	if _, ok := r.Addr(h); ok {
		t.Fatal("handle should not be present before insert")
	}

	r.Insert(h, &fakeSink{}, "127.0.0.1:9000")
	assert.Equal(t, 1, r.Size())
	addr, ok := r.Addr(h)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:9000", addr)

	r.Remove(h)
	assert.Equal(t, 0, r.Size())
	_, ok = r.Addr(h)
	assert.False(t, ok)
}

func TestRegistryRemoveAbsentIsNoop(t *testing.T) {
	r := registry.New()
	r.Remove(types.Handle(42))
	assert.Equal(t, 0, r.Size())
}

// A client never receives its own transmissions back.
func TestFanOutExcludesOriginator(t *testing.T) {
	r := registry.New()
	sender := &fakeSink{}
	peerA := &fakeSink{}
	peerB := &fakeSink{}
	r.Insert(1, sender, "a")
	r.Insert(2, peerA, "b")
	r.Insert(3, peerB, "c")

	r.FanOut(1, []byte("hello"), nil)

	assert.Empty(t, sender.received)
	require.Len(t, peerA.received, 1)
	require.Len(t, peerB.received, 1)
	assert.Equal(t, []byte("hello"), peerA.received[0])
	assert.Equal(t, []byte("hello"), peerB.received[0])
}

func TestFanOutReportsErrorsAndContinues(t *testing.T) {
	r := registry.New()
	bad := &fakeSink{err: errors.New("broken pipe")}
	good := &fakeSink{}
	r.Insert(1, bad, "a")
	r.Insert(2, good, "b")

	var failed []types.Handle
	r.FanOut(99, []byte("x"), func(h types.Handle, err error) {
		failed = append(failed, h)
	})

	assert.Equal(t, []types.Handle{1}, failed)
	require.Len(t, good.received, 1)
}

func TestRemoveAndCloseClosesSink(t *testing.T) {
	r := registry.New()
	s := &fakeSink{}
	r.Insert(1, s, "a")
	r.RemoveAndClose(1)
	assert.Equal(t, 0, r.Size())
	assert.True(t, s.closed)
}
