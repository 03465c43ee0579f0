package main

import (
	"log"
	"os"

	"github.com/rspmedika/mutabaah/core"
	"github.com/rspmedika/mutabaah/core/mutabaah"
	"github.com/rspmedika/mutabaah/core/report"
	"github.com/rspmedika/mutabaah/services/logger"
	"github.com/rspmedika/mutabaah/services/notification"
	"github.com/rspmedika/mutabaah/storage/database"
	"github.com/rspmedika/mutabaah/storage/database/pg"
)

var std *log.Logger

func main() {
	defer os.Exit(0)

	std = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// wire the ledger service the same way the server would, so CLI writes
	// go through month-key validation instead of raw repo calls
	ledgerSvc := mutabaah.NewService(
		pgrepos.NewLedgerRepository(db),
		report.MonthLock{Repo: pgrepos.NewReportRepository(db)},
		notifsvc.NewConsoleService(),
		core.RealClock(),
		newLogger(std),
	)

	// start CLI
	cli := commandLine{
		db:     db,
		ledger: ledgerSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// newLogger reports to rollbar when a token is configured, stdout otherwise.
func newLogger(std *log.Logger) core.Logger {
	if core.Conf.RollbarToken != "" {
		return logsvc.NewRollbarLogger(std, core.Conf)
	}
	return logsvc.NewStdLogger(std)
}

func errAndDie(err error) {
	if err != nil {
		std.Fatal(err)
	}
}
