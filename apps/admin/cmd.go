package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"

	"github.com/rspmedika/mutabaah/core/catalog"
	"github.com/rspmedika/mutabaah/core/mutabaah"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sqlx.DB
	ledger *mutabaah.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args]                - run a database migration command (up, down, status, ...)")
	fmt.Println("  activate -employee ID -month YYYY-MM  - opt an employee's month into tracking")
	fmt.Println("  catalog                               - print the deploy-time activity catalog")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	activateCmd := flag.NewFlagSet("activate", flag.ExitOnError)
	activateEmployee := activateCmd.String("employee", "", "The employee's id.")
	activateMonth := activateCmd.String("month", "", "The month to activate, YYYY-MM.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "activate":
		if err := activateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *activateEmployee == "" || *activateMonth == "" {
			activateCmd.Usage()
			return errHelp
		}
		return cli.activate(*activateEmployee, *activateMonth)
	case "catalog":
		return cli.printCatalog()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) activate(employeeID, monthKey string) error {
	if err := cli.ledger.Activate(context.Background(), employeeID, monthKey); err != nil {
		return err
	}
	fmt.Printf("activated %s for %s\n", monthKey, employeeID)
	return nil
}

func (cli *commandLine) printCatalog() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCATEGORY\tTITLE\tTARGET\tTRIGGER")
	for _, def := range catalog.Default() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", def.ID, def.Category, def.Title, def.MonthlyTarget, def.AutomationTrigger)
	}
	return w.Flush()
}
