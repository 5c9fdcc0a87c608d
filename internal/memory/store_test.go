package memory

import (
	"testing"

	"github.com/mesh-intelligence/itemstore/internal/storetest"
	"github.com/mesh-intelligence/itemstore/pkg/types"
)

func newBackend() types.Backend { return New() }

func TestStore(t *testing.T) {
	storetest.Run(t, newBackend)
}

func TestStoreProperties(t *testing.T) {
	storetest.RunProperties(t, newBackend)
}
