// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taibuivan/portal/pkg/apiclient"
)

var errNotSignedIn = errors.New("not signed in")

func (app *cli) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, auth, err := app.session()
			if err != nil {
				return err
			}
			if password, err = promptPassword(cmd.InOrStdin(), app.errOut, password); err != nil {
				return err
			}

			user, err := auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if user == nil {
				return errors.New("signed in, but the server did not confirm the session")
			}

			fmt.Fprintf(app.out, "Signed in as %s\n", describe(user))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func (app *cli) registerCmd() *cobra.Command {
	var input apiclient.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account. Editor and Viewer can be chosen; Admin accounts are
created by an administrator. The role defaults to Viewer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, auth, err := app.session()
			if err != nil {
				return err
			}
			if input.Password, err = promptPassword(cmd.InOrStdin(), app.errOut, input.Password); err != nil {
				return err
			}

			user, err := auth.Register(cmd.Context(), input)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out, "Registered %s\n", describe(user))
			fmt.Fprintln(app.out, `Run "portalctl login" to store a token.`)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "account email")
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Role, "role", "", "Editor or Viewer")
	cmd.Flags().StringVar(&input.Password, "password", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func (app *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, auth, err := app.session()
			if err != nil {
				return err
			}
			if err := auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "Signed out")
			return nil
		},
	}
}

func (app *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and their permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, auth, err := app.session()
			if err != nil {
				return err
			}
			user, err := auth.Load(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				return errNotSignedIn
			}

			fmt.Fprintln(app.out, describe(user))
			for _, resource := range slices.Sorted(maps.Keys(user.Permissions)) {
				fmt.Fprintf(app.out, "  %s: %s\n", resource, strings.Join(user.Permissions[resource], ", "))
			}
			return nil
		},
	}
}

func (app *cli) canCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "can <resource> <action>",
		Short: "Check whether the signed-in user may perform an action",
		Example: `  portalctl can reports export
  portalctl can users delete`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, auth, err := app.session()
			if err != nil {
				return err
			}
			user, err := auth.Load(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				return errNotSignedIn
			}

			resource, action := args[0], args[1]
			if !apiclient.HasPermission(user, resource, action) {
				return fmt.Errorf("%s may not %s %s", user.Role, action, resource)
			}
			fmt.Fprintf(app.out, "%s may %s %s\n", user.Role, action, resource)
			return nil
		},
	}
}

func (app *cli) rolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the roles and what each may do",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, auth, err := app.session()
			if err != nil {
				return err
			}
			roles, err := auth.Roles(cmd.Context())
			if err != nil {
				return err
			}

			table := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(table, "ROLE\tSELF-SERVICE\tCURRENT\tDESCRIPTION")
			for _, role := range roles {
				fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", role.Role, yesNo(role.SelfService), marker(role.Current), role.Description)
			}
			return table.Flush()
		},
	}
}

// promptPassword returns given, or reads one line from in when given is empty.
func promptPassword(in io.Reader, prompt io.Writer, given string) (string, error) {
	if given != "" {
		return given, nil
	}
	if file, ok := in.(*os.File); ok && file == os.Stdin {
		fmt.Fprint(prompt, "Password: ")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password required")
	}
	return password, nil
}

func describe(user *apiclient.User) string {
	return fmt.Sprintf("%s <%s> (%s)", user.Name, user.Email, user.Role)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func marker(value bool) string {
	if value {
		return "*"
	}
	return ""
}
