package uid

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 IDs safe across multiple nodes.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator whose node number is derived from the
// hostname, so replicas get distinct (best effort) node identities without
// coordination.
func NewSnowflake() (*Snowflake, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	h := fnv.New32a()
	if _, err := h.Write([]byte(hostname)); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(int64(h.Sum32() % 1024))
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new int64 ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
