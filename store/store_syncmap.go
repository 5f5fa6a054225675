// Implements an in-memory kv store using sync.Map
package store

import (
	"fmt"

	"github.com/philippgille/gokv"
	"github.com/philippgille/gokv/syncmap"
)

type SyncMapStoreOptions struct {
	Codec string `json:"codec"`
}

// NewSyncMapStore is the default store. Its contents die with the process, so
// a gateway backed by it issues a fresh network key on every start.
func NewSyncMapStore(optionsJSON string) (gokv.Store, error) {
	var options SyncMapStoreOptions
	if err := decodeOptions(optionsJSON, &options); err != nil {
		return nil, err
	}
	codec, err := getStoreCodec(options.Codec)
	if err != nil {
		return nil, fmt.Errorf("getStoreCodec err: %w", err)
	}
	if codec == nil {
		return syncmap.NewStore(syncmap.DefaultOptions), nil
	}
	return syncmap.NewStore(syncmap.Options{Codec: codec}), nil
}
