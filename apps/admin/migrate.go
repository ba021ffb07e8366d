package main

import (
	"github.com/trezcool/ecclesia/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateFunc(cli.db, cli.conf.Database.Engine, args[0], arguments...)
}
