package main

import (
	"encoding/hex"
	"fmt"

	"github.com/google/wire"
	"github.com/purselabs/purse/core"
	"github.com/purselabs/purse/service/credential"
	"github.com/purselabs/purse/service/mint"
	"github.com/purselabs/purse/service/replica"
	"github.com/spf13/viper"
)

var serviceSet = wire.NewSet(
	mint.New,
	credential.New,
)

// provideReplicaStore builds the encrypted replica from config. The key is
// derived and delivered by the identity layer; here it arrives hex-encoded.
func provideReplicaStore(v *viper.Viper) (core.ReplicaStore, error) {
	key, err := hex.DecodeString(v.GetString("replica.key"))
	if err != nil {
		return nil, fmt.Errorf("replica key: %w", err)
	}

	blobs := replica.NewHTTPBlobStore(
		v.GetString("replica.url"),
		v.GetString("replica.app_id"),
		v.GetString("replica.token"),
	)

	return replica.New(blobs, key)
}
