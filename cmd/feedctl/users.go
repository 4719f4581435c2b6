package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func runCreateUser(apiURL, username, email string, prefs, interests []string, out io.Writer) error {
	if username == "" || email == "" {
		return fmt.Errorf("--username and --email required")
	}
	payload := map[string]interface{}{
		"username":    username,
		"email":       email,
		"preferences": prefs,
		"interests":   interests,
	}
	resp, err := newClient(apiURL).R().SetBody(payload).Post("/api/users")
	return writeResponse(resp, err, out)
}

func runGetUser(apiURL, userID string, out io.Writer) error {
	resp, err := newClient(apiURL).R().SetPathParam("userId", userID).Get("/api/users/{userId}")
	return writeResponse(resp, err, out)
}

func init() {
	usersCmd := &cobra.Command{Use: "users", Short: "User operations"}

	var username, email string
	var prefs, interests []string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateUser(apiFlag, username, email, prefs, interests, os.Stdout)
		},
	}
	createCmd.Flags().StringVarP(&username, "username", "n", "", "Username (required)")
	createCmd.Flags().StringVarP(&email, "email", "e", "", "User email (required)")
	createCmd.Flags().StringSliceVar(&prefs, "preferences", nil, "Preferred categories, comma separated")
	createCmd.Flags().StringSliceVar(&interests, "interests", nil, "Interest tags, comma separated")
	usersCmd.AddCommand(createCmd)

	usersCmd.AddCommand(&cobra.Command{
		Use:   "get USER_ID",
		Short: "Get user by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGetUser(apiFlag, args[0], os.Stdout)
		},
	})

	rootCmd.AddCommand(usersCmd)
}
