// Package chunk implements the content-addressed chunking codec used by
// the replication protocol's note format: splitting logical content into
// ~32-byte leaf documents and reassembling them, never splitting inside a
// multi-byte UTF-8 code point.
package chunk

import (
	"crypto/rand"
	"math/big"

	"github.com/olifog/yamos/internal/yerr"
)

// Size is the target chunk size in bytes. livesync chunks at ~32 bytes.
const Size = 32

const idCharset = "0123456789abcdefghijklmnopqrstuvwxyz"
const idLength = 13

// Chunk is one sealed piece of content with a freshly generated id.
type Chunk struct {
	ID   string
	Data string
}

// NewID generates a fresh "h:"-prefixed 13-character lowercase-alphanumeric
// chunk id, sampled uniformly from idCharset via crypto/rand.
func NewID() (string, error) {
	buf := make([]byte, idLength)
	max := big.NewInt(int64(len(idCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = idCharset[n.Int64()]
	}
	return "h:" + string(buf), nil
}

// Split breaks content into chunks of at most Size bytes, never splitting
// a multi-byte code point across chunks. It always produces at least one
// chunk, even for empty input.
func Split(content string) ([]Chunk, error) {
	var chunks []Chunk
	var current []byte
	for _, r := range content {
		rb := []byte(string(r))
		if len(current)+len(rb) > Size && len(current) > 0 {
			id, err := NewID()
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, Chunk{ID: id, Data: string(current)})
			current = nil
		}
		current = append(current, rb...)
	}
	if len(current) > 0 || len(chunks) == 0 {
		id, err := NewID()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{ID: id, Data: string(current)})
	}
	return chunks, nil
}

// Assemble concatenates chunk data in the given child order.
func Assemble(children []string, fetch func(id string) (string, error)) (string, error) {
	var out []byte
	for _, id := range children {
		data, err := fetch(id)
		if err != nil {
			return "", yerr.Wrap(yerr.BackendError, "fetch chunk "+id, err)
		}
		out = append(out, data...)
	}
	return string(out), nil
}
