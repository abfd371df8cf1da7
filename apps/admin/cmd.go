package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/goal"
	"github.com/trezcool/skillfolio/core/user"
	"github.com/trezcool/skillfolio/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Migrate  // mockable

	errEmptyPassword = errors.New("the password cannot be empty")
)

type commandLine struct {
	db       *sql.DB
	logger   core.Logger
	validate *validator.Validate

	usrRepo         user.Repository
	courseSvc       course.Service
	gamificationSvc gamification.Service
	goalSvc         goal.Service
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Skillfolio administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.migrateCmd(),
		cli.seedCmd(),
		cli.recountGoalsCmd(),
	)
	return root
}

// run executes args, without the program name.
func (cli *commandLine) run(ctx context.Context, args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}
