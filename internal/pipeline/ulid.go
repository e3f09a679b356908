package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// ULID generator without external dependencies: 26 Crockford Base32
// characters, 48-bit millisecond timestamp prefix, 80 random bits with
// a sequence embedded so same-millisecond IDs stay unique and sortable.

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func generateULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], ts<<16)
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encodeBase32(b)
}

// encodeBase32 packs 128 bits into 26 Crockford characters, walking the
// bytes as a bit stream from the most significant bit.
func encodeBase32(b [16]byte) string {
	out := make([]byte, 26)
	// First character carries only the top 3 bits.
	out[0] = crockford[b[0]>>5]
	bitPos := 3
	for i := 1; i < 26; i++ {
		byteIdx := bitPos / 8
		shift := bitPos % 8
		v := b[byteIdx] << shift >> 3
		if shift > 3 && byteIdx+1 < 16 {
			v |= b[byteIdx+1] >> (11 - shift)
		}
		out[i] = crockford[v&31]
		bitPos += 5
	}
	return string(out)
}
