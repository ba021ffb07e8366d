package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/trail"
)

const operatorID = "admin-cli"

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
)

type commandLine struct {
	conf      *core.Config
	db        *sqlx.DB
	courseSvc *course.Service
	trailSvc  *trail.Service
	in        io.Reader
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  graduate -course ID [-concurrency N] [-yes] - complete a course for all its members")
	fmt.Fprintln(cli.out, "  retry -course ID -members ID,ID - re-run a graduation for the members it failed for")
	fmt.Fprintln(cli.out, "  progress -org ID -member ID - print a member's progress on the active trail")
	fmt.Fprintln(cli.out, "  token -member ID -org ID [-caps CAP,CAP] [-ttl DURATION] - issue a development API token")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	graduateCmd := cli.newFlagSet("graduate")
	graduateCourse := graduateCmd.String("course", "", "The course to graduate.")
	graduateConcurrency := graduateCmd.Int("concurrency", 0, "How many members are processed at the same time (defaults to the configured value).")
	graduateYes := graduateCmd.Bool("yes", false, "Do not ask for confirmation.")

	retryCmd := cli.newFlagSet("retry")
	retryCourse := retryCmd.String("course", "", "The graduated course.")
	retryMembers := retryCmd.String("members", "", "Comma separated IDs of the members to retry.")
	retryConcurrency := retryCmd.Int("concurrency", 0, "How many members are processed at the same time (defaults to the configured value).")

	progressCmd := cli.newFlagSet("progress")
	progressOrg := progressCmd.String("org", "", "The member's organization.")
	progressMember := progressCmd.String("member", "", "The member.")

	tokenCmd := cli.newFlagSet("token")
	tokenMember := tokenCmd.String("member", "", "The member the token is issued for.")
	tokenOrg := tokenCmd.String("org", "", "The member's organization.")
	tokenCaps := tokenCmd.String("caps", "", "Comma separated capabilities: "+joinCapabilities(core.AllCapabilities))
	tokenTTL := tokenCmd.Duration("ttl", defaultTokenTTL, "How long the token is valid.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "graduate":
		if err := graduateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *graduateCourse == "" {
			graduateCmd.Usage()
			return errHelp
		}
		return cli.graduate(*graduateCourse, *graduateConcurrency, *graduateYes)
	case "retry":
		if err := retryCmd.Parse(args[2:]); err != nil {
			return err
		}
		members := splitList(*retryMembers)
		if *retryCourse == "" || len(members) == 0 {
			retryCmd.Usage()
			return errHelp
		}
		return cli.retry(*retryCourse, members, *retryConcurrency)
	case "progress":
		if err := progressCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *progressOrg == "" || *progressMember == "" {
			progressCmd.Usage()
			return errHelp
		}
		return cli.progress(*progressOrg, *progressMember)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenMember == "" || *tokenOrg == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenMember, *tokenOrg, splitList(*tokenCaps), *tokenTTL)
	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks a yes/no question when the CLI runs on an interactive terminal.
func (cli *commandLine) confirm(question string) (bool, error) {
	fd := -1
	if f, ok := cli.in.(interface{ Fd() uintptr }); ok {
		fd = int(f.Fd())
	}
	if !isTerminalFunc(fd) {
		return true, nil
	}
	fmt.Fprintf(cli.out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer = core.CleanString(answer, true)
	return answer == "y" || answer == "yes", nil
}

// operator returns the caller the CLI acts as within an organization.
func operator(orgID string) core.Caller {
	return core.Caller{MemberID: operatorID, OrganizationID: orgID, Capabilities: core.AllCapabilities}
}

func splitList(s string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func joinCapabilities(caps []core.Capability) string {
	values := make([]string, 0, len(caps))
	for _, c := range caps {
		values = append(values, string(c))
	}
	return strings.Join(values, ",")
}
