package bootstrap

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"os"

	"github.com/jt828/runner/pkg/snowflake"
	snowflakeImpl "github.com/jt828/runner/pkg/snowflake/implementation"
)

// InitializeSnowflake returns the generator for run IDs.
func InitializeSnowflake() (snowflake.Snowflake, error) {
	nodeID, err := HostNodeID()
	if err != nil {
		return nil, err
	}
	return snowflakeImpl.NewSnowflake(nodeID)
}

// HostNodeID derives a snowflake node ID (0-1023) from HOSTNAME, or from the
// kernel's hostname when HOSTNAME is unset, so runs on different hosts get
// distinct IDs.
func HostNodeID() (int64, error) {
	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return 0, fmt.Errorf("hostname: %w", err)
		}
		hostname = h
	}
	if hostname == "" {
		return 0, fmt.Errorf("hostname is empty")
	}

	h := fnv.New64a()
	h.Write([]byte(hostname))
	return int64(binary.BigEndian.Uint64(h.Sum(nil)) % 1024), nil
}
