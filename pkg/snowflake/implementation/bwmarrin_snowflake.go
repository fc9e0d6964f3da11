package implementation

import (
	"fmt"

	bwmarrin "github.com/bwmarrin/snowflake"
	"github.com/jt828/runner/pkg/snowflake"
)

type bwmarrinSnowflake struct {
	node *bwmarrin.Node
}

func NewSnowflake(nodeID int64) (snowflake.Snowflake, error) {
	node, err := bwmarrin.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &bwmarrinSnowflake{node: node}, nil
}

func (s *bwmarrinSnowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// GenerateString returns the ID in base58, short enough for log fields.
func (s *bwmarrinSnowflake) GenerateString() string {
	return s.node.Generate().Base58()
}
