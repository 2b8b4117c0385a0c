package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
}

// command is an admin subcommand; run gets the arguments following its name.
type command struct {
	name  string
	usage string
	run   func(cli *commandLine, args []string) error
}

var commands = []command{
	{
		name:  "migrate",
		usage: "migrate COMMAND [ARGS] - run a goose migration command (up, up-to, down, down-to, redo, status, version...)",
		run: func(cli *commandLine, args []string) error {
			if len(args) == 0 {
				return errHelp
			}
			return cli.migrate(args)
		},
	},
	{
		name:  "adduser",
		usage: "adduser -username USERNAME -email EMAIL [-level LEVEL] [-admin] - create or update a user",
		run:   (*commandLine).runAddUser,
	},
	{
		name:  "resetpassword",
		usage: "resetpassword -username USERNAME|EMAIL - reset a user's password",
		run:   (*commandLine).runResetPassword,
	},
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	for _, cmd := range commands {
		fmt.Println("  " + cmd.usage)
	}
}

// promptPassword reads a password from the terminal; an empty one prints usage.
func (cli *commandLine) promptPassword(usage func()) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) runAddUser(args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	uname := fs.String("username", "", "The user's username. The password will be prompted next.")
	email := fs.String("email", "", "The user's email.")
	level := fs.String("level", string(core.Secondary), "The user's education level: Primary, Secondary or Tertiary.")
	isAdmin := fs.Bool("admin", false, "Grant the admin role: admins see every student, subject & grade.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uname == "" || *email == "" {
		fs.Usage()
		return errHelp
	}

	pwd, err := cli.promptPassword(fs.Usage)
	if err != nil {
		return err
	}
	return cli.addUser(*uname, *email, pwd, core.EducationLevel(*level), *isAdmin)
}

func (cli *commandLine) runResetPassword(args []string) error {
	fs := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	uname := fs.String("username", "", "The user's username or email. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uname == "" {
		fs.Usage()
		return errHelp
	}

	pwd, err := cli.promptPassword(fs.Usage)
	if err != nil {
		return err
	}
	return cli.resetPassword(*uname, pwd)
}

// run dispatches os.Args style arguments to the matching command.
func (cli *commandLine) run(args []string) error {
	if len(args) >= 2 {
		for _, cmd := range commands {
			if cmd.name != args[1] {
				continue
			}
			err := cmd.run(cli, args[2:])
			if err == errHelp {
				cli.printUsage()
			}
			return err
		}
	}
	cli.printUsage()
	return errHelp
}
