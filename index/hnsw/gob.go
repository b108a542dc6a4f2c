package hnsw

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/vexiter/vexiter/core"
	"github.com/vexiter/vexiter/index"
)

// hnswSnapshot is the self-contained gob representation of an HNSW index.
// The graph itself is stored in its native export format.
type hnswSnapshot struct {
	Dimension    int
	DistanceType index.DistanceType
	NextID       uint32
	Graph        []byte
}

// GobEncode serializes the index state.
func (h *HNSW) GobEncode() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var graphBuf bytes.Buffer
	if err := h.graph.Export(&graphBuf); err != nil {
		return nil, fmt.Errorf("export graph: %w", err)
	}

	snap := hnswSnapshot{
		Dimension:    h.opts.Dimension,
		DistanceType: h.opts.DistanceType,
		NextID:       uint32(h.nextID),
		Graph:        graphBuf.Bytes(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GobDecode restores the index state. The receiver's configuration is
// replaced by the decoded snapshot.
func (h *HNSW) GobDecode(data []byte) error {
	var snap hnswSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return err
	}

	distanceFunc := index.NewDistanceFunc(snap.DistanceType)
	if distanceFunc == nil {
		return fmt.Errorf("unsupported distance type in snapshot: %d", snap.DistanceType)
	}

	graph := newGraph(snap.DistanceType)
	if err := graph.Import(bytes.NewReader(snap.Graph)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.opts.Dimension = snap.Dimension
	h.opts.DistanceType = snap.DistanceType
	h.distanceFunc = distanceFunc
	h.nextID = core.DocID(snap.NextID)
	h.graph = graph

	return nil
}
