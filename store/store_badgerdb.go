// Implements a local kv store using an embedded BadgerDB
package store

import (
	"fmt"
	"os"

	"github.com/philippgille/gokv"
	"github.com/philippgille/gokv/badgerdb"
)

type BadgerDbStoreOptions struct {
	Dir   string `json:"dir"`
	Codec string `json:"codec"`
}

func NewBadgerDBStore(optionsJSON string) (gokv.Store, error) {
	if optionsJSON == "" {
		return createBadgerDBStore(badgerdb.DefaultOptions)
	}
	var options BadgerDbStoreOptions
	if err := decodeOptions(optionsJSON, &options); err != nil {
		return nil, err
	}
	codec, err := getStoreCodec(options.Codec)
	if err != nil {
		return nil, fmt.Errorf("getStoreCodec err: %w", err)
	}
	return createBadgerDBStore(badgerdb.Options{Dir: os.ExpandEnv(options.Dir), Codec: codec})
}

func createBadgerDBStore(options badgerdb.Options) (gokv.Store, error) {
	store, err := badgerdb.NewStore(options)
	if err != nil {
		return nil, fmt.Errorf("badgerdb.NewStore err: %w", err)
	}
	return store, nil
}
