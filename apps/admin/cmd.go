package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tmbastos/escolar/core/alert"
	"github.com/tmbastos/escolar/core/calendar"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db      *sqlx.DB
	calSvc  *calendar.Service
	scanner *alert.Scanner
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [args] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  schooldays -school SCHOOL_ID -year YEAR -from YYYY-MM-DD -to YYYY-MM-DD - count school days in range")
	fmt.Fprintln(cli.out, "  alerts -year YEAR [-period N] [-notify] - flag students with low attendance")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	schoolDaysCmd := flag.NewFlagSet("schooldays", flag.ExitOnError)
	schoolDaysSchool := schoolDaysCmd.String("school", "", "The school ID.")
	schoolDaysYear := schoolDaysCmd.Int("year", 0, "The academic year.")
	schoolDaysFrom := schoolDaysCmd.String("from", "", "Range start, YYYY-MM-DD.")
	schoolDaysTo := schoolDaysCmd.String("to", "", "Range end, YYYY-MM-DD.")

	alertsCmd := flag.NewFlagSet("alerts", flag.ExitOnError)
	alertsYear := alertsCmd.Int("year", 0, "The academic year.")
	alertsPeriod := alertsCmd.Int("period", 0, "The bimester (1..4), or 0 for the whole year.")
	alertsNotify := alertsCmd.Bool("notify", false, "Email the staff list with the flags.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "schooldays":
		if err := schoolDaysCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *schoolDaysSchool == "" || *schoolDaysYear == 0 || *schoolDaysFrom == "" || *schoolDaysTo == "" {
			schoolDaysCmd.Usage()
			return errHelp
		}
		return cli.schoolDays(*schoolDaysSchool, *schoolDaysYear, *schoolDaysFrom, *schoolDaysTo)

	case "alerts":
		if err := alertsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *alertsYear == 0 {
			alertsCmd.Usage()
			return errHelp
		}
		return cli.alerts(*alertsYear, *alertsPeriod, *alertsNotify)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) schoolDays(school string, year int, from, to string) error {
	schoolID, err := uuid.Parse(school)
	if err != nil {
		return fmt.Errorf("invalid school ID %q", school)
	}
	fromDay, err := calendar.ParseDayDate(from)
	if err != nil {
		return err
	}
	toDay, err := calendar.ParseDayDate(to)
	if err != nil {
		return err
	}
	if toDay.Before(fromDay) {
		return fmt.Errorf("range end %s precedes start %s", toDay, fromDay)
	}

	count, err := cli.calSvc.SchoolDaysCount(context.Background(), schoolID, year, fromDay.Time(), toDay.Time())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d school days between %s and %s\n", count, fromDay, toDay)
	return nil
}

func (cli *commandLine) alerts(year, period int, notify bool) error {
	flags, err := cli.scanner.Scan(context.Background(), year, period)
	if err != nil {
		return err
	}
	if len(flags) == 0 {
		fmt.Fprintln(cli.out, "no students under the attendance threshold")
		return nil
	}
	for _, f := range flags {
		name := f.StudentName
		if name == "" {
			name = f.StudentID.String()
		}
		fmt.Fprintf(cli.out, "%-8s %5.1f%% %s\n", f.Severity, f.Average, name)
	}
	if notify {
		cli.scanner.Notify(year, period, flags)
	}
	return nil
}
