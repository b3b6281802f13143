package node

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Node represents the current application node with its metadata
type Node struct {
	ID         string
	Hostname   string
	Version    string
	CommitHash string
}

var Version = "development"
var CommitHash = "unknown"

var (
	nodeID       string
	nodeIDOnce   sync.Once
	hostname     string
	hostnameOnce sync.Once
)

// GetNodeInfo returns the current node information
func GetNodeInfo() *Node {
	return &Node{
		ID:         getNodeID(),
		Hostname:   getHostname(),
		Version:    Version,
		CommitHash: CommitHash,
	}
}

// ClientID builds an MQTT client id that is stable for the process lifetime
// and unique across nodes.
func ClientID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, getNodeID()[:8])
}

func getNodeID() string {
	nodeIDOnce.Do(func() {
		nodeID = uuid.New().String()
	})
	return nodeID
}

func getHostname() string {
	hostnameOnce.Do(func() {
		name, err := os.Hostname()
		if err != nil || name == "" {
			name = "localhost"
		}
		hostname = name
	})
	return hostname
}
