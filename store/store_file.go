// Implements a local kv store backed by one file per key
package store

import (
	"fmt"
	"os"

	"github.com/philippgille/gokv"
	"github.com/philippgille/gokv/file"
)

type FileStoreOptions struct {
	Directory         string `json:"dir"`
	FilenameExtension string `json:"file_name_extension"`
	Codec             string `json:"codec"`
}

func NewFileStore(optionsJSON string) (gokv.Store, error) {
	if optionsJSON == "" {
		return createFileStore(file.DefaultOptions)
	}
	var options FileStoreOptions
	if err := decodeOptions(optionsJSON, &options); err != nil {
		return nil, err
	}
	codec, err := getStoreCodec(options.Codec)
	if err != nil {
		return nil, fmt.Errorf("getStoreCodec err: %w", err)
	}
	var filenameExtension *string
	if options.FilenameExtension != "" {
		filenameExtension = &options.FilenameExtension
	}
	return createFileStore(file.Options{
		Directory:         os.ExpandEnv(options.Directory),
		FilenameExtension: filenameExtension,
		Codec:             codec,
	})
}

func createFileStore(options file.Options) (gokv.Store, error) {
	store, err := file.NewStore(options)
	if err != nil {
		return nil, fmt.Errorf("file.NewStore err: %w", err)
	}
	return store, nil
}
