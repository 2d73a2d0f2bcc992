package annotation

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Annotation ids are ULIDs: a 48-bit millisecond timestamp followed by
// 80 bits of randomness, Crockford Base32 encoded to 26 characters.
// The timestamp prefix makes ids sort roughly by creation time, which
// keeps store listings stable without a second ordering key.

const idAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var idState struct {
	sync.Mutex
	ms  uint64
	seq uint16
}

// NewID returns a fresh annotation id.
func NewID() string {
	idState.Lock()
	ms := uint64(time.Now().UnixMilli())
	if ms == idState.ms {
		idState.seq++
	} else {
		idState.ms = ms
		idState.seq = 0
	}
	seq := idState.seq
	idState.Unlock()

	var raw [16]byte
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], ms)
	copy(raw[:6], ts[2:])
	rand.Read(raw[6:])
	// The sequence counter overwrites the first two random bytes so ids
	// minted within the same millisecond stay distinct and ordered.
	binary.BigEndian.PutUint16(raw[6:8], seq)

	return encodeID(raw)
}

// encodeID packs 128 bits into 26 Crockford Base32 characters. The
// first character carries only the top 3 bits, the rest 5 each.
func encodeID(raw [16]byte) string {
	bitAt := func(i int) byte {
		return (raw[i/8] >> (7 - i%8)) & 1
	}
	var out [26]byte
	pos := 0
	for i := range out {
		width := 5
		if i == 0 {
			width = 3
		}
		var v byte
		for j := 0; j < width; j++ {
			v = v<<1 | bitAt(pos)
			pos++
		}
		out[i] = idAlphabet[v]
	}
	return string(out[:])
}
