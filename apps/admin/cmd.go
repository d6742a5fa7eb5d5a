package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/gothwad/classesx/core/records"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	usrRepo  user.Repository
	settings settings.Repository
	records  records.Store
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, down, redo, status, version, ...)")
	fmt.Println("  adduser -name NAME -email EMAIL|ID [-role admin|student|parent] [-phone PHONE] [-student ID] - create or update a user")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  maintenance on|off - put the app under maintenance or bring it back")
	fmt.Println("  importfees -file FILE - load fee records from a JSON file")
	fmt.Println("  importattendance -file FILE - load attendance records from a JSON file")
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	return string(pwd), err
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email, or the student/parent ID they sign in with. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", "admin", "One of admin, student, parent.")
	addUserPhone := addUserCmd.String("phone", "", "The user's phone number.")
	addUserStudent := addUserCmd.String("student", "", "Parents only: the ID of the student they follow.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	importFeesCmd := flag.NewFlagSet("importfees", flag.ContinueOnError)
	importFeesFile := importFeesCmd.String("file", "", "A JSON array of fee records.")

	importAttendanceCmd := flag.NewFlagSet("importattendance", flag.ContinueOnError)
	importAttendanceFile := importAttendanceCmd.String("file", "", "A JSON array of attendance records.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		role, err := user.ParseRole(*addUserRole)
		if err != nil {
			return err
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(newAccount{
			name:      *addUserName,
			email:     *addUserEmail,
			role:      role,
			phone:     *addUserPhone,
			studentID: *addUserStudent,
			password:  pwd,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "maintenance":
		if len(args) < 3 || (args[2] != "on" && args[2] != "off") {
			cli.printUsage()
			return errHelp
		}
		return cli.setMaintenance(args[2] == "on")

	case "importfees":
		if err := importFeesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFeesFile == "" {
			importFeesCmd.Usage()
			return errHelp
		}
		return cli.importFees(*importFeesFile)

	case "importattendance":
		if err := importAttendanceCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importAttendanceFile == "" {
			importAttendanceCmd.Usage()
			return errHelp
		}
		return cli.importAttendance(*importAttendanceFile)

	default:
		cli.printUsage()
		return errHelp
	}
}
