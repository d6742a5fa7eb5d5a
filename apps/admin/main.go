// Command admin runs maintenance tasks against the Postgres database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	logsvc "github.com/gothwad/classesx/services/logger"
	"github.com/gothwad/classesx/storage/database"
	sqlxdb "github.com/gothwad/classesx/storage/database/sqlx"
)

func main() {
	conf := core.Conf
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags), conf)

	cli, closeDB, err := connect(conf)
	if err != nil {
		logger.Fatal("connecting to the database", err)
	}
	err = cli.run(os.Args)
	closeDB()

	switch {
	case err == errHelp:
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		logger.Error("admin "+command(os.Args), err)
		os.Exit(1)
	}
}

// connect opens the database, creating it first if needed.
func connect(conf *core.Config) (*commandLine, func(), error) {
	if conf.Database.IsMemory() {
		return nil, nil, errors.New("the admin CLI needs the postgres driver")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening database")
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "pinging database")
	}
	return &commandLine{
		db:       db,
		usrRepo:  sqlxdb.NewUserRepository(db),
		settings: sqlxdb.NewSettingsRepository(db),
		records:  sqlxdb.NewRecordsRepository(db),
	}, func() { _ = db.Close() }, nil
}

func command(args []string) string {
	if len(args) < 2 {
		return ""
	}
	return args[1]
}
