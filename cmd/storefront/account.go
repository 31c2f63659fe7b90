package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// passwordFlag falls back to STOREFRONT_PASSWORD so it stays out of shell
// history.
func passwordFlag(value string) string {
	if value != "" {
		return value
	}
	return os.Getenv("STOREFRONT_PASSWORD")
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Login(cmd.Context(), email, passwordFlag(password)); err != nil {
				return err
			}
			p := c.app.Profile.Profile()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(p, email))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (or STOREFRONT_PASSWORD)")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var in session.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Password = passwordFlag(in.Password)
			if in.ConfirmPassword == "" {
				in.ConfirmPassword = in.Password
			}
			if err := c.app.Session.Register(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", displayName(c.app.Profile.Profile(), in.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "Password (or STOREFRONT_PASSWORD)")
	cmd.Flags().StringVar(&in.ConfirmPassword, "confirm-password", "", "Repeat the password (defaults to --password)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Profile.Fetch(cmd.Context()); err != nil {
				return err
			}
			p := c.app.Profile.Profile()
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", displayName(p, p.Email), p.Email)
			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Profile.Fetch(cmd.Context()); err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), c.app.Profile.Profile())
			return nil
		},
	}
	cmd.AddCommand(c.profileUpdateCmd(), c.profileContactCmd())
	return cmd
}

func (c *cli) profileUpdateCmd() *cobra.Command {
	var (
		edits    domain.UserProfile
		password string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.app.Profile.Fetch(ctx); err != nil {
				return err
			}
			draft := c.app.Profile.Draft()
			flags := cmd.Flags()
			set := func(name string, dst *string, v string) {
				if flags.Changed(name) {
					*dst = v
				}
			}
			set("first-name", &draft.FirstName, edits.FirstName)
			set("middle-initial", &draft.MiddleInitial, edits.MiddleInitial)
			set("last-name", &draft.LastName, edits.LastName)
			set("email", &draft.Email, edits.Email)
			set("birthdate", &draft.Birthdate, edits.Birthdate)
			set("address", &draft.Address, edits.Address)
			if err := c.app.Profile.Save(ctx, draft, password); err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), c.app.Profile.Profile())
			return nil
		},
	}
	cmd.Flags().StringVar(&edits.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&edits.MiddleInitial, "middle-initial", "", "Middle initial")
	cmd.Flags().StringVar(&edits.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&edits.Email, "email", "", "Email")
	cmd.Flags().StringVar(&edits.Birthdate, "birthdate", "", "Birthdate (YYYY-MM-DD)")
	cmd.Flags().StringVar(&edits.Address, "address", "", "Street address")
	cmd.Flags().StringVar(&password, "new-password", "", "New password")
	return cmd
}

func (c *cli) profileContactCmd() *cobra.Command {
	var contact, address, birthdate string
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Set the contact details used at checkout; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.app.Profile.Fetch(ctx); err != nil {
				return err
			}
			current := c.app.Profile.Profile()
			flags := cmd.Flags()
			if !flags.Changed("phone") {
				contact = current.ContactNumber
			}
			if !flags.Changed("address") {
				address = current.Address
			}
			if !flags.Changed("birthdate") {
				birthdate = current.Birthdate
			}
			if err := c.app.Profile.UpdateContact(ctx, contact, address, birthdate); err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), c.app.Profile.Profile())
			return nil
		},
	}
	cmd.Flags().StringVar(&contact, "phone", "", "Contact number")
	cmd.Flags().StringVar(&address, "address", "", "Street address")
	cmd.Flags().StringVar(&birthdate, "birthdate", "", "Birthdate (YYYY-MM-DD)")
	return cmd
}

func displayName(p domain.UserProfile, fallback string) string {
	if name := p.FullName(); name != "" {
		return name
	}
	return fallback
}

func printProfile(w io.Writer, p domain.UserProfile) {
	fmt.Fprintf(w, "Name:      %s\n", p.FullName())
	fmt.Fprintf(w, "Email:     %s\n", p.Email)
	fmt.Fprintf(w, "Birthdate: %s\n", p.Birthdate)
	fmt.Fprintf(w, "Address:   %s\n", p.Address)
	fmt.Fprintf(w, "Contact:   %s\n", p.ContactNumber)
}
