// Package root provides the command tree of the coffeeshop client
package root

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bear-san/coffee-shop/internal/environment"
	"github.com/bear-san/coffee-shop/internal/logger"
	"github.com/bear-san/coffee-shop/pkg/apiclient"
	"github.com/bear-san/coffee-shop/pkg/auth0"
)

// app holds what every subcommand shares. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	env         environment.Config
	sessionPath string
	apiURL      string
	verbose     bool

	log     logger.Logger
	idp     *auth0.Client
	session *auth0.Session
}

// NewRootCommand builds the coffeeshop command tree.
func NewRootCommand() *cobra.Command {
	a := &app{env: environment.Current()}

	cmd := &cobra.Command{
		Use:   "coffeeshop",
		Short: "Coffee shop menu client",
		Long: `Log in to the coffee shop with Auth0 and browse or edit the drinks
menu served by the coffee shop API`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.sessionPath, "session", "", "Token file (default: <user config dir>/coffeeshop/token)")
	flags.StringVar(&a.apiURL, "api", "", "API server URL (default: the build's apiServerUrl)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log API requests to stderr")

	cmd.AddCommand(
		newEnvCommand(a),
		newLoginURLCommand(a),
		newLogoutURLCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newDrinksCommand(a),
	)
	return cmd
}

func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) init() error {
	a.log = logger.NewNop()
	if a.verbose {
		log, err := logger.New(logger.Config{Level: "debug", Development: true, OutputPaths: []string{"stderr"}})
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		a.log = log
	}

	if a.sessionPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("locate config dir: %w", err)
		}
		a.sessionPath = filepath.Join(dir, "coffeeshop", "token")
	}
	if a.apiURL == "" {
		a.apiURL = a.env.APIServerURL
	}

	idp, err := auth0.New(a.env.Auth0)
	if err != nil {
		return fmt.Errorf("environment %s: %w", environment.BuildMode, err)
	}
	a.idp = idp

	a.session = auth0.NewSession(a.sessionPath)
	if err := a.session.Load(); err != nil {
		a.log.Warn("Ignoring unreadable session", logger.String("path", a.sessionPath), logger.Error(err))
		a.session = auth0.NewSession(a.sessionPath)
	}
	return nil
}

func (a *app) api() (*apiclient.DrinksService, error) {
	client, err := apiclient.New(a.apiURL,
		apiclient.WithTokenSource(a.session),
		apiclient.WithLogger(a.log),
	)
	if err != nil {
		return nil, err
	}
	return apiclient.NewDrinksService(client, a.session), nil
}

// explain turns API failures into something a user can act on.
func explain(err error) error {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case "token_expired":
		return fmt.Errorf("%s; run `coffeeshop login-url` to log in again", apiErr.Message)
	case "authorization_header_missing":
		return fmt.Errorf("%s; you are not logged in", apiErr.Message)
	case "unauthorized":
		return fmt.Errorf("%s; your account cannot do this", apiErr.Message)
	}
	return err
}
