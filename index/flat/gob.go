package flat

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/vexiter/vexiter/index"
)

// flatSnapshot is the self-contained gob representation of a flat index.
type flatSnapshot struct {
	Dimension    int
	DistanceType index.DistanceType
	Vectors      [][]float32
}

// GobEncode serializes the index state.
func (f *Flat) GobEncode() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	snap := flatSnapshot{
		Dimension:    f.opts.Dimension,
		DistanceType: f.opts.DistanceType,
		Vectors:      f.vectors,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GobDecode restores the index state. The receiver's configuration is
// replaced by the decoded snapshot.
func (f *Flat) GobDecode(data []byte) error {
	var snap flatSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return err
	}

	distanceFunc := index.NewDistanceFunc(snap.DistanceType)
	if distanceFunc == nil {
		return fmt.Errorf("unsupported distance type in snapshot: %d", snap.DistanceType)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.opts.Dimension = snap.Dimension
	f.opts.DistanceType = snap.DistanceType
	f.distanceFunc = distanceFunc
	f.vectors = snap.Vectors

	return nil
}
