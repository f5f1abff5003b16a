package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/notification"
	"github.com/3bdulrahman-M3/Front/core/user"
	logsvc "github.com/3bdulrahman-M3/Front/services/logger"
	"github.com/3bdulrahman-M3/Front/storage/database"
	"github.com/3bdulrahman-M3/Front/storage/database/inmem"
	"github.com/3bdulrahman-M3/Front/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(false)

	cli := commandLine{out: os.Stdout}
	var (
		usrRepo   user.Repository
		notifRepo notification.Repository
	)

	if conf.Database.Engine == "inmem" {
		db := inmemdb.Open()
		usrRepo, notifRepo = inmemdb.NewUserRepository(db), inmemdb.NewNotificationRepository(db)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := database.Open(ctx, conf)
		cancel()
		if err != nil {
			logger.Fatal("opening database", err)
		}
		defer func(db *sql.DB) { _ = db.Close() }(db.DB)
		cli.db = db.DB
		usrRepo, notifRepo = sqlxrepos.NewUserRepository(db), sqlxrepos.NewNotificationRepository(db)
	}

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	cli.usrRepo = usrRepo
	cli.notifSvc = notification.NewService(notifRepo, validate, translator, logger)

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
