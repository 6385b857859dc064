package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Dan9191/world-service/internal/client"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	server  string
	token   string
	verbose bool
	in      io.Reader
	out     io.Writer
	log     *logrus.Logger
}

func (a *app) client() *client.Client {
	c := client.New(a.server, a.log)
	c.SetToken(a.token)
	return c
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out, log: logrus.New()}
	a.log.SetOutput(os.Stderr)
	a.log.SetLevel(logrus.WarnLevel)

	root := &cobra.Command{
		Use:           "worldctl",
		Short:         "Manage your worlds from the command line",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				a.log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.server, "server", envOr("WORLDCTL_SERVER", "http://localhost:3001"), "API base URL")
	root.PersistentFlags().StringVar(&a.token, "token", os.Getenv("WORLDCTL_TOKEN"), "bearer token")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests")

	root.AddCommand(
		newHealthCmd(a),
		newRegisterCmd(a),
		newLoginCmd(a),
		newWorldsCmd(a),
	)
	return root
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s at %s\n", status.Status, status.Timestamp)
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var email, username, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client().Register(cmd.Context(), email, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, res.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a token for WORLDCTL_TOKEN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, res.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
