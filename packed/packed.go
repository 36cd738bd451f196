// Package packed implements the binary wire contracts between the map
// backend and the galaxy frontend: the packed embedding blob, the
// relationship chunk format, and the draw-command opcodes. Everything here
// is bit-exact and little-endian; the frontend reinterprets these buffers
// directly.
package packed

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/amonks/galaxy/data"
)

// Draw-command stream opcodes. Commands are a flat little-endian u32
// sequence of (opcode, artist id) pairs.
const (
	CmdAddLabel        uint32 = 0
	CmdRemoveLabel     uint32 = 1
	CmdAddGeometry     uint32 = 2
	CmdRemoveGeometry  uint32 = 3
	CmdFetchArtistData uint32 = 4
	CmdStartMusic      uint32 = 5
	CmdStopMusic       uint32 = 6
)

// MapPoint is one artist in the packed embedding blob.
type MapPoint struct {
	ID         uint32
	Position   data.Vector
	Popularity uint8
}

// EncodeEmbedding packs points as [u32 count][u32 id ×count][f32×3 position
// ×count][u8 popularity ×count]. The popularity block is optional in the
// format; pass withPopularity=false to omit it for older frontends.
func EncodeEmbedding(points []MapPoint, withPopularity bool) []byte {
	size := 4 + len(points)*4 + len(points)*12
	if withPopularity {
		size += len(points)
	}
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(points)))
	for _, p := range points {
		buf = binary.LittleEndian.AppendUint32(buf, p.ID)
	}
	for _, p := range points {
		for axis := 0; axis < 3; axis++ {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(p.Position[axis]))
		}
	}
	if withPopularity {
		for _, p := range points {
			buf = append(buf, p.Popularity)
		}
	}
	return buf
}

// DecodeEmbedding unpacks an embedding blob, scaling each position axis by
// the given multiplier. The popularity block is present only if the buffer
// is long enough to hold it; absent popularities decode as zero.
func DecodeEmbedding(buf []byte, multiplier [3]float32) ([]MapPoint, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("embedding blob is %d bytes; expected at least 4", len(buf))
	}
	count := int(binary.LittleEndian.Uint32(buf))

	base := 4 + count*4 + count*12
	if len(buf) < base {
		return nil, fmt.Errorf("embedding blob is %d bytes; expected at least %d for %d artists", len(buf), base, count)
	}
	hasPopularity := len(buf) >= base+count

	points := make([]MapPoint, count)
	ids := buf[4:]
	positions := buf[4+count*4:]
	for i := range points {
		points[i].ID = binary.LittleEndian.Uint32(ids[i*4:])
		pos := make(data.Vector, 3)
		for axis := 0; axis < 3; axis++ {
			bits := binary.LittleEndian.Uint32(positions[i*12+axis*4:])
			pos[axis] = math.Float32frombits(bits) * multiplier[axis]
		}
		points[i].Position = pos
		if hasPopularity {
			points[i].Popularity = buf[base+i]
		}
	}
	return points, nil
}

// EncodeRelationshipChunk packs per-artist related-id lists as [u8
// relatedCount ×len(related)][padding to 4-byte alignment][u32 relatedID
// ×total]. The outer slice is positional: related[i] belongs to the i'th
// artist of the chunk's id range.
func EncodeRelationshipChunk(related [][]uint32) []byte {
	counts := len(related)
	padded := (counts + 3) &^ 3

	var total int
	for _, ids := range related {
		total += len(ids)
	}

	buf := make([]byte, padded, padded+total*4)
	for i, ids := range related {
		if len(ids) > 255 {
			ids = ids[:255]
		}
		buf[i] = uint8(len(ids))
	}
	for _, ids := range related {
		if len(ids) > 255 {
			ids = ids[:255]
		}
		for _, id := range ids {
			buf = binary.LittleEndian.AppendUint32(buf, id)
		}
	}
	return buf
}

// DecodeRelationshipChunk unpacks a chunk holding related-id lists for
// artistCount artists.
func DecodeRelationshipChunk(buf []byte, artistCount int) ([][]uint32, error) {
	padded := (artistCount + 3) &^ 3
	if len(buf) < padded {
		return nil, fmt.Errorf("relationship chunk is %d bytes; expected at least %d for %d artists", len(buf), padded, artistCount)
	}

	var total int
	for i := 0; i < artistCount; i++ {
		total += int(buf[i])
	}
	if len(buf) < padded+total*4 {
		return nil, fmt.Errorf("relationship chunk is %d bytes; expected %d for %d edges", len(buf), padded+total*4, total)
	}

	related := make([][]uint32, artistCount)
	at := padded
	for i := 0; i < artistCount; i++ {
		n := int(buf[i])
		if n == 0 {
			continue
		}
		ids := make([]uint32, n)
		for j := range ids {
			ids[j] = binary.LittleEndian.Uint32(buf[at:])
			at += 4
		}
		related[i] = ids
	}
	return related, nil
}
