package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/promosync/internal/migration"
	"github.com/smallbiznis/promosync/internal/observability"
	"github.com/smallbiznis/promosync/internal/server"
	"github.com/smallbiznis/promosync/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		server.Module,
		migration.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
