// Package envelope defines the value the ring transports between the event
// loop and the broadcaster: an originator handle, a bounded payload, and
// the payload's actual length.
package envelope

import (
	"fmt"

	"broadcastd/pkg/types"
)

// MaxPayload is the ring envelope's fixed payload capacity. It matches
// types.Config.BufferSize under the default configuration; with a
// non-default BufferSize larger than this, New rejects the oversize chunks
// (and the event loop drops them), so both are kept equal to 1024 bytes.
const MaxPayload = 1024

// Envelope is value-copied into and out of the ring. Origin identifies the
// source connection so the broadcaster can exclude it from fan-out; Length
// bytes of Payload are meaningful; New leaves the rest zeroed.
type Envelope struct {
	Origin  types.Handle
	Length  int
	Payload [MaxPayload]byte
}

// New builds an Envelope from a read chunk. It returns an error if chunk is
// empty or exceeds MaxPayload; callers should not push such chunks onto the
// ring in the first place.
func New(origin types.Handle, chunk []byte) (Envelope, error) {
	var e Envelope
	if len(chunk) == 0 {
		return e, fmt.Errorf("envelope: empty chunk from handle %d", origin)
	}
	if len(chunk) > MaxPayload {
		return e, fmt.Errorf("envelope: chunk of %d bytes exceeds capacity %d", len(chunk), MaxPayload)
	}
	e.Origin = origin
	e.Length = copy(e.Payload[:], chunk)
	return e, nil
}

// Bytes returns the meaningful slice of Payload.
func (e *Envelope) Bytes() []byte {
	return e.Payload[:e.Length]
}
