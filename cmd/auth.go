package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backend",
	Example: `  vidchat login
  vidchat login --email you@example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := flagOrPrompt(cmd, "email", "Email: ")
		if err != nil {
			return err
		}
		password, err := internal.ReadPassword("Password: ")
		if err != nil {
			return err
		}

		app := internal.NewApp(config)
		res, err := app.Auth().Login(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("logging in: %w", err)
		}

		name := email
		if res.User != nil && res.User.Name != "" {
			name = res.User.Name
		}
		app.UI().Printf("Logged in as %s\n", name)
		return nil
	},
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := flagOrPrompt(cmd, "name", "Name: ")
		if err != nil {
			return err
		}
		email, err := flagOrPrompt(cmd, "email", "Email: ")
		if err != nil {
			return err
		}
		password, err := readNewPassword()
		if err != nil {
			return err
		}

		app := internal.NewApp(config)
		if _, err := app.Auth().Register(cmd.Context(), email, password, name); err != nil {
			return fmt.Errorf("registering: %w", err)
		}
		app.UI().Printf("Account created, logged in as %s\n", name)
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		if err := app.Auth().Logout(); err != nil {
			return err
		}
		app.UI().Println("Logged out")
		return nil
	},
}

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		if err := app.RequireLogin(); err != nil {
			return err
		}

		user, err := app.Client().CurrentUser(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Name:  %s\n", user.Name)
		fmt.Printf("Email: %s\n", user.Email)
		if user.IsAdmin {
			fmt.Println("Role:  admin")
		}
		app.UI().Verbose("User ID: %s\n", user.UserID)
		return nil
	},
}

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Change your name or password",
	Example: `  vidchat profile --name "Ada Lovelace"
  vidchat profile --password`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		if err := app.RequireLogin(); err != nil {
			return err
		}

		var update internal.ProfileUpdate
		update.Name, _ = cmd.Flags().GetString("name")
		if changePassword, _ := cmd.Flags().GetBool("password"); changePassword {
			password, err := readNewPassword()
			if err != nil {
				return err
			}
			update.Password = password
		}
		if update.Name == "" && update.Password == "" {
			return fmt.Errorf("nothing to update - use --name or --password")
		}

		user, err := app.Client().UpdateProfile(cmd.Context(), update)
		if err != nil {
			return fmt.Errorf("updating profile: %w", err)
		}
		app.UI().Printf("Profile updated for %s\n", user.Email)
		return nil
	},
}

// deleteAccountCmd represents the profile delete subcommand
var deleteAccountCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your account and everything stored with it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		if err := app.RequireLogin(); err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			if !internal.AskUser("Delete your account and all of its chats?") {
				return nil
			}
		}

		if err := app.Client().DeleteAccount(cmd.Context()); err != nil {
			return fmt.Errorf("deleting account: %w", err)
		}
		if err := app.Auth().Logout(); err != nil {
			return err
		}
		app.UI().Println("Account deleted")
		return nil
	},
}

func flagOrPrompt(cmd *cobra.Command, flag, prompt string) (string, error) {
	value, _ := cmd.Flags().GetString(flag)
	if value != "" {
		return value, nil
	}
	value, err := internal.ReadLine(prompt)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", fmt.Errorf("%s is required", flag)
	}
	return value, nil
}

func readNewPassword() (string, error) {
	password, err := internal.ReadPassword("Password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	confirm, err := internal.ReadPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("name", "", "Display name")
	profileCmd.Flags().String("name", "", "New display name")
	profileCmd.Flags().Bool("password", false, "Prompt for a new password")
	deleteAccountCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	profileCmd.AddCommand(deleteAccountCmd)
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, profileCmd)
}
