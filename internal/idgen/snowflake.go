// Package idgen issues snowflake ids used as human readable order codes.
package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/gofiber/fiber/v2/log"
)

var (
	mu   sync.Mutex
	node *snowflake.Node
)

func Init(nodeID int64) {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		log.Fatalf("failed to init snowflake: %v", err)
	}
	mu.Lock()
	node = n
	mu.Unlock()
}

// Code returns a new base36 snowflake id. The node defaults to 1 when Init
// was never called, which is what tests rely on.
func Code() string {
	mu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	n := node
	mu.Unlock()
	return n.Generate().Base36()
}
