package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/storage/database"
)

const migrateTimeout = 10 * time.Minute

var (
	gooseRunFunc = database.RunMigrations // mockable

	errCreateUnsupported = errors.New("migrations are embedded in the binary: add new ones under fs/migrations")
)

// migrate runs a goose command against the embedded migrations. args[0] is the command.
func (cli *commandLine) migrate(args []string) error {
	command, rest := args[0], args[1:]
	if command == "create" {
		return errCreateUnsupported
	}
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	return gooseRunFunc(ctx, cli.db, command, rest...)
}
