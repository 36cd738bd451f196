package render

import (
	"fmt"

	"github.com/amonks/galaxy/packed"
)

// HandleRelationshipChunk ingests one chunk of the related-artists graph,
// packed per the wire format, covering artists [chunkIx·chunkSize,
// chunkIx·chunkSize+chunkSize) of the ascending-id artist list. It decides
// which new edges to draw and returns how many connections it committed.
// Related ids outside this session's loaded artist set are expected (the
// graph spans the whole universe) and skipped. The chunk is retained so a
// later quality change can replay it.
func (eng *Engine) HandleRelationshipChunk(chunkIx, chunkSize int, buf []byte) (int, error) {
	retained := make([]byte, len(buf))
	copy(retained, buf)

	count, err := eng.applyChunk(chunkIx, chunkSize, retained)
	if err != nil {
		return 0, err
	}
	eng.chunks = append(eng.chunks, retainedChunk{ix: chunkIx, size: chunkSize, buf: retained})
	return count, nil
}

func (eng *Engine) applyChunk(chunkIx, chunkSize int, buf []byte) (int, error) {
	start := chunkIx * chunkSize
	if start < 0 || start >= len(eng.artists) {
		return 0, fmt.Errorf("relationship chunk %d is out of range for %d artists", chunkIx, len(eng.artists))
	}
	end := start + chunkSize
	if end > len(eng.artists) {
		end = len(eng.artists)
	}

	related, err := packed.DecodeRelationshipChunk(buf, end-start)
	if err != nil {
		return 0, fmt.Errorf("error decoding relationship chunk %d: %w", chunkIx, err)
	}

	count := 0
	for i, relatedIDs := range related {
		aIx := start + i
		for _, id := range relatedIDs {
			bIx, ok := eng.byID[id]
			if !ok {
				continue
			}
			a := &eng.artists[aIx]
			if len(a.related) >= eng.cfg.MaxRelatedPerArtist {
				break
			}
			a.related = append(a.related, edge{relatedIx: bIx, connectionIx: -1})
			count += eng.maybeRenderConnection(aIx, bIx)
		}
	}
	return count, nil
}

// maybeRenderConnection decides whether to draw the undirected edge between
// two artists. Each pair renders at most once no matter which direction
// discovers it; among new pairs, closer ones render with higher probability,
// and the quality setting raises the floor so high quality draws more of the
// long-haul lines.
func (eng *Engine) maybeRenderConnection(aIx, bIx int) int {
	pair := [2]int{aIx, bIx}
	if bIx < aIx {
		pair = [2]int{bIx, aIx}
	}
	if _, has := eng.connections[pair]; has {
		return 0
	}

	d := eng.artists[aIx].position.Distance(eng.artists[bIx].position)
	if eng.rng.Float32() >= eng.connectionProbability(d) {
		return 0
	}

	eng.connections[pair] = eng.connectionCount
	eng.connectionCount++
	eng.setConnectionIx(aIx, bIx, eng.connectionCount-1)
	eng.artists[aIx].flags |= FlagRenderConnections
	eng.artists[bIx].flags |= FlagRenderConnections
	return 1
}

func (eng *Engine) setConnectionIx(aIx, bIx, connectionIx int) {
	for i := range eng.artists[aIx].related {
		e := &eng.artists[aIx].related[i]
		if e.relatedIx == bIx && e.connectionIx < 0 {
			e.connectionIx = connectionIx
			return
		}
	}
}

func (eng *Engine) connectionProbability(d float32) float32 {
	var p float32
	switch {
	case d < 10:
		p = 0.9
	case d < 25:
		p = 0.5
	case d < 50:
		p = 0.25
	default:
		p = 0.1
	}
	if floor := float32(eng.cfg.Quality) / 40; p < floor {
		p = floor
	}
	return p
}

// ConnectionCount reports how many connections are currently committed to
// the rendering buffer.
func (eng *Engine) ConnectionCount() int { return eng.connectionCount }

// SetQuality changes the rendering quality level. The connection sampling
// threshold depends on quality, so the whole connection buffer is invalid:
// it is rebuilt by replaying every retained relationship chunk under the new
// setting. Returns the rebuilt connection count.
func (eng *Engine) SetQuality(quality uint8) int {
	eng.cfg.Quality = quality

	eng.connections = make(map[[2]int]int)
	eng.connectionCount = 0
	for ix := range eng.artists {
		eng.artists[ix].related = eng.artists[ix].related[:0]
		eng.artists[ix].flags &^= FlagRenderConnections
	}

	for _, chunk := range eng.chunks {
		// Chunks were accepted once already; a decode error here would
		// mean the retained copy was corrupted in-process.
		if _, err := eng.applyChunk(chunk.ix, chunk.size, chunk.buf); err != nil {
			panic(err)
		}
	}
	return eng.connectionCount
}
