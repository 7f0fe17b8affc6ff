package nats

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wayneeseguin/treesync/pkg/treesync"
)

// wireValue is the byte-level envelope for a treesync.Value. The core's
// Value carries an opaque Blob for structural opcodes (treesync.OpPayload)
// and for whatever a codec collaborator round-trips ([]byte is the common
// case for jsoncodec/yamlcodec); this transport only knows how to carry
// those two shapes across NATS. A codec that hands the dispatcher some
// other Blob type (codec/yamlcodec's NewNodeCodec's *yaml.Node, say) isn't
// wire-safe through this transport — see DESIGN.md. Wire encoding is
// YAML (gopkg.in/yaml.v3), matching the teacher's own op_nats.go payload
// format and this repo's own codec/yamlcodec, rather than reaching for
// encoding/json a second time alongside codec/jsoncodec's already-disclosed
// one.
type wireValue struct {
	Kind treesync.ValueKind `yaml:"kind"`
	B    bool               `yaml:"b,omitempty"`
	I    int64              `yaml:"i,omitempty"`
	F    float64            `yaml:"f,omitempty"`
	S    string             `yaml:"s,omitempty"`
	Blob []byte             `yaml:"blob,omitempty"`
	Op   *wireOp            `yaml:"op,omitempty"`
}

type wireOp struct {
	Index *uint32   `yaml:"index,omitempty"`
	From  *uint32   `yaml:"from,omitempty"`
	To    *uint32   `yaml:"to,omitempty"`
	Key   string    `yaml:"key,omitempty"`
	Item  wireValue `yaml:"item"`
}

func toWireValue(v treesync.Value) (wireValue, error) {
	w := wireValue{Kind: v.Kind, B: v.B, I: v.I, F: v.F, S: v.S}
	if v.Kind != treesync.KindBlob {
		return w, nil
	}
	switch blob := v.Blob.(type) {
	case treesync.OpPayload:
		item, err := toWireValue(blob.Item)
		if err != nil {
			return wireValue{}, err
		}
		w.Op = &wireOp{Index: blob.Index, From: blob.From, To: blob.To, Key: blob.Key, Item: item}
	case []byte:
		w.Blob = blob
	case nil:
	default:
		return wireValue{}, fmt.Errorf("nats: value carries a %T blob, which this transport cannot serialize", blob)
	}
	return w, nil
}

func fromWireValue(w wireValue) treesync.Value {
	if w.Kind != treesync.KindBlob {
		return treesync.Value{Kind: w.Kind, B: w.B, I: w.I, F: w.F, S: w.S}
	}
	if w.Op != nil {
		return treesync.OpValue(treesync.OpPayload{
			Index: w.Op.Index,
			From:  w.Op.From,
			To:    w.Op.To,
			Key:   w.Op.Key,
			Item:  fromWireValue(w.Op.Item),
		})
	}
	return treesync.BlobValue(w.Blob)
}

type wirePatch struct {
	ID    string    `yaml:"id"`
	Path  string    `yaml:"path"`
	Value wireValue `yaml:"value"`
}

type wireSnapshot struct {
	ID        string    `yaml:"id"`
	TypeTag   string    `yaml:"type_tag"`
	RootState wireValue `yaml:"root_state"`
}

type wireSnapshotRequest struct {
	ID     string                         `yaml:"id"`
	Reason treesync.SnapshotRequestReason `yaml:"reason"`
}

func encodePatch(id string, p treesync.Patch) ([]byte, error) {
	wv, err := toWireValue(p.Value)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(wirePatch{ID: id, Path: p.Path, Value: wv})
}

func decodePatch(data []byte) (string, treesync.Patch, error) {
	var w wirePatch
	if err := yaml.Unmarshal(data, &w); err != nil {
		return "", treesync.Patch{}, err
	}
	return w.ID, treesync.Patch{Path: w.Path, Value: fromWireValue(w.Value)}, nil
}

func encodeSnapshot(id string, s treesync.Snapshot) ([]byte, error) {
	wv, err := toWireValue(s.RootState)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(wireSnapshot{ID: id, TypeTag: s.TypeTag, RootState: wv})
}

func decodeSnapshot(data []byte) (string, treesync.Snapshot, error) {
	var w wireSnapshot
	if err := yaml.Unmarshal(data, &w); err != nil {
		return "", treesync.Snapshot{}, err
	}
	return w.ID, treesync.Snapshot{TypeTag: w.TypeTag, RootState: fromWireValue(w.RootState)}, nil
}

func encodeSnapshotRequest(id string, r treesync.SnapshotRequest) ([]byte, error) {
	return yaml.Marshal(wireSnapshotRequest{ID: id, Reason: r.Reason})
}

func decodeSnapshotRequest(data []byte) (string, treesync.SnapshotRequest, error) {
	var w wireSnapshotRequest
	if err := yaml.Unmarshal(data, &w); err != nil {
		return "", treesync.SnapshotRequest{}, err
	}
	return w.ID, treesync.SnapshotRequest{Reason: w.Reason}, nil
}
