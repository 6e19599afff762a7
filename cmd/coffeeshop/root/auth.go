package root

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bear-san/coffee-shop/pkg/auth0"
)

func newLoginURLCommand(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "login-url",
		Short: "Print the Auth0 login link",
		Long: `Print the Auth0 login link. Open it in a browser, log in, then pass the
URL you are redirected to to "coffeeshop login".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), a.idp.LoginLink(path))
			return err
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Path appended to the callback URL")
	return cmd
}

func newLogoutURLCommand(a *app) *cobra.Command {
	var returnTo string

	cmd := &cobra.Command{
		Use:   "logout-url",
		Short: "Print the Auth0 logout link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), a.idp.LogoutLink(returnTo))
			return err
		},
	}
	cmd.Flags().StringVar(&returnTo, "return-to", "", "Where Auth0 redirects after logout (default: the callback URL)")
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <callback-url>",
		Short: "Store the access token from an Auth0 login redirect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth0.TokenFromCallback(args[0])
			if err != nil {
				return err
			}
			if err := a.session.SetToken(token); err != nil {
				return err
			}
			return printIdentity(cmd, a.session.Claims())
		},
	}
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out. To end the Auth0 session too, open:")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), a.idp.LogoutLink(""))
			return err
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored token's subject, expiry and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			claims := a.session.Claims()
			if claims == nil {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return err
			}
			return printIdentity(cmd, claims)
		},
	}
}

func printIdentity(cmd *cobra.Command, claims *auth0.Claims) error {
	if claims == nil {
		return nil
	}

	expires := "never"
	if claims.ExpiresAt != nil {
		at := claims.ExpiresAt.Time
		expires = at.Local().Format(time.RFC3339)
		if time.Now().After(at) {
			expires += " (expired)"
		}
	}

	permissions := "none"
	if len(claims.Permissions) > 0 {
		permissions = strings.Join(claims.Permissions, "\n")
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendRow(table.Row{"Subject", claims.Subject})
	t.AppendRow(table.Row{"Expires", expires})
	t.AppendRow(table.Row{"Permissions", permissions})
	t.Render()
	return nil
}
