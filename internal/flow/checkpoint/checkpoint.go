package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the checkpoint format version. Bump on breaking changes
// to the record layout.
const Version = 1

// Checkpoint is one durable snapshot: the serialized session state
// plus the position in the graph to continue from. When Interrupted is
// set, NextNode is the suspend point itself and Payload carries the
// interrupt payload shown to the caller.
type Checkpoint struct {
	Version   int       `json:"version"`
	Session   string    `json:"session"`
	NodeID    string    `json:"node_id"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	State    json.RawMessage `json:"state"`
	NextNode string          `json:"next_node"`

	Interrupted bool            `json:"interrupted,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// New builds a regular (non-interrupt) checkpoint. State must already
// be JSON-encoded.
func New(session, nodeID string, sequence int, state []byte, nextNode string) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		Session:   session,
		NodeID:    nodeID,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		State:     state,
		NextNode:  nextNode,
	}
}

// Suspended marks the checkpoint as an interrupt marker with the given
// payload. The resume position is the checkpointed node itself.
func (c *Checkpoint) Suspended(payload []byte) *Checkpoint {
	c.Interrupted = true
	c.Payload = payload
	c.NextNode = c.NodeID
	return c
}

// Marshal encodes the checkpoint record.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal decodes a checkpoint record.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
