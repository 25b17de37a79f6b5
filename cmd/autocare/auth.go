package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func signupCmd(a *app) *cobra.Command {
	var name, email, password, confirm, googleToken string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if googleToken != "" {
				msg, err := a.client.SignUpWithGoogle(cmd.Context(), googleToken)
				if err != nil {
					return err
				}
				fmt.Println(msg)
				return nil
			}

			msg, err := a.client.SignUp(cmd.Context(), name, email, password, confirm)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "Password confirmation")
	cmd.Flags().StringVar(&googleToken, "google-token", "", "Google id token (social sign-up)")

	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var email, password, googleToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store tokens locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if googleToken != "" {
				result, err := a.client.SocialSignIn(cmd.Context(), googleToken)
				if err != nil {
					return err
				}
				fmt.Printf("Signed in as %s (%s)\n", result.User.Name, result.User.Email)
				return nil
			}

			result, err := a.client.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s), %d car(s)\n",
				result.User.Name, result.User.Email, len(result.User.Cars))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&googleToken, "google-token", "", "Google id token (social sign-in)")

	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the current user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := a.client.Store().CurrentUserID()
			if !ok {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Println(id)
			return nil
		},
	}
}

func profileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	setName := &cobra.Command{
		Use:   "set-name <name>",
		Short: "Change your display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.client.UpdateProfileName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}

	cmd.AddCommand(setName)
	return cmd
}

func passwordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password operations",
	}

	var oldPassword, newPassword, confirm string
	change := &cobra.Command{
		Use:   "change",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.ChangePassword(cmd.Context(), oldPassword, newPassword, confirm); err != nil {
				return err
			}
			fmt.Println("Password changed.")
			return nil
		},
	}
	change.Flags().StringVar(&oldPassword, "old", "", "Current password")
	change.Flags().StringVar(&newPassword, "new", "", "New password")
	change.Flags().StringVar(&confirm, "confirm", "", "New password confirmation")
	change.MarkFlagRequired("old")
	change.MarkFlagRequired("new")
	change.MarkFlagRequired("confirm")

	forgot := &cobra.Command{
		Use:   "forgot <email>",
		Short: "Request a password reset OTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.client.ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}

	verify := &cobra.Command{
		Use:   "verify-otp <otp>",
		Short: "Verify the password reset OTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.VerifyOTP(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("OTP verified.")
			return nil
		},
	}

	var resetNew, resetConfirm string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password after OTP verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.ResetPassword(cmd.Context(), resetNew, resetConfirm); err != nil {
				return err
			}
			fmt.Println("Password reset.")
			return nil
		},
	}
	reset.Flags().StringVar(&resetNew, "new", "", "New password")
	reset.Flags().StringVar(&resetConfirm, "confirm", "", "New password confirmation")
	reset.MarkFlagRequired("new")
	reset.MarkFlagRequired("confirm")

	cmd.AddCommand(change, forgot, verify, reset)
	return cmd
}
