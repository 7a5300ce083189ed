package main

import (
	"github.com/google/wire"
	"github.com/purselabs/purse/store/apikey"
	"github.com/purselabs/purse/store/db"
	"github.com/purselabs/purse/store/invoice"
	"github.com/purselabs/purse/store/proof"
	"github.com/purselabs/purse/store/property"
	"github.com/spf13/viper"
	"github.com/tsenart/nap"
	_ "modernc.org/sqlite"
)

var storeSet = wire.NewSet(
	provideDB,
	proof.New,
	invoice.New,
	apikey.New,
	property.New,
)

func provideDB(v *viper.Viper) (*nap.DB, func(), error) {
	v.SetDefault("db.path", "purse.db")

	dsn := v.GetString("db.path")
	conn, err := nap.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Migrate(conn.Master()); err != nil {
		return nil, nil, err
	}

	return conn, func() { _ = conn.Close() }, nil
}
