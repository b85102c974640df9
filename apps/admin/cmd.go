package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/auth"
	"github.com/Shin40411/Lms-client/core/classroom"
	"github.com/Shin40411/Lms-client/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB // nil when no database is configured
	authSvc  auth.Service
	classSvc classroom.Service
	userSvc  user.Service
	logger   core.Logger
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run the activity log migrations (goose commands: up, down, status, ...)")
	fmt.Fprintln(cli.out, "  classes -username USERNAME [-search TEXT] - list the classes")
	fmt.Fprintln(cli.out, "  export -username USERNAME -class ID [-out FILE] - export the roster of a class as XLSX")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME -user ID - set the password of a user")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	classesCmd := flag.NewFlagSet("classes", flag.ContinueOnError)
	classesUname := classesCmd.String("username", "", "The dashboard username. The password will be prompted next.")
	classesSearch := classesCmd.String("search", "", "Only list the classes matching this text.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportUname := exportCmd.String("username", "", "The dashboard username. The password will be prompted next.")
	exportClass := exportCmd.String("class", "", "The id of the class.")
	exportOut := exportCmd.String("out", "", "The file to write; roster_<class name>.xlsx by default.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The dashboard username. The password will be prompted next.")
	resetPasswordUser := resetPasswordCmd.String("user", "", "The id of the user whose password is set. The new password will be prompted next.")

	for _, fs := range []*flag.FlagSet{classesCmd, exportCmd, resetPasswordCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "classes":
		if err := classesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *classesUname == "" {
			classesCmd.Usage()
			return errHelp
		}
		ctx, err := cli.signIn(*classesUname)
		if err != nil {
			return err
		}
		return cli.listClasses(ctx, *classesSearch)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportUname == "" || *exportClass == "" {
			exportCmd.Usage()
			return errHelp
		}
		ctx, err := cli.signIn(*exportUname)
		if err != nil {
			return err
		}
		return cli.exportRoster(ctx, *exportClass, *exportOut)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" || *resetPasswordUser == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		ctx, err := cli.signIn(*resetPasswordUname)
		if err != nil {
			return err
		}
		pwd, err := cli.readPassword("Enter new password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordUser, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

// signIn prompts the password of username and signs them in upstream. The returned context
// carries their access token.
func (cli *commandLine) signIn(username string) (context.Context, error) {
	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	sess, err := cli.authSvc.SignIn(ctx, auth.SignInForm{Username: username, Password: pwd})
	if err != nil {
		return nil, err
	}
	return activity.WithActor(auth.WithToken(ctx, sess.AccessToken), sess.User.Username), nil
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
