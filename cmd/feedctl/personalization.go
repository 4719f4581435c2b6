package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func runFeed(apiURL, userID string, page, pageSize int, out io.Writer) error {
	if userID == "" {
		return fmt.Errorf("--user required")
	}
	resp, err := newClient(apiURL).R().
		SetPathParam("userId", userID).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("pageSize", strconv.Itoa(pageSize)).
		Get("/api/personalization/feed/{userId}")
	return writeResponse(resp, err, out)
}

func runScore(apiURL, userID, contentID string, out io.Writer) error {
	if userID == "" || contentID == "" {
		return fmt.Errorf("--user and --content required")
	}
	resp, err := newClient(apiURL).R().
		SetPathParams(map[string]string{"userId": userID, "contentId": contentID}).
		Get("/api/personalization/score/{userId}/{contentId}")
	return writeResponse(resp, err, out)
}

func runFactors(apiURL, userID string, out io.Writer) error {
	if userID == "" {
		return fmt.Errorf("--user required")
	}
	resp, err := newClient(apiURL).R().
		SetPathParam("userId", userID).
		Get("/api/personalization/factors/{userId}")
	return writeResponse(resp, err, out)
}

func init() {
	var userID, contentID string
	var page, pageSize int

	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Show a user's personalized feed page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(apiFlag, userID, page, pageSize, os.Stdout)
		},
	}
	feedCmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	feedCmd.Flags().IntVarP(&page, "page", "p", 1, "Page number, starting at 1")
	feedCmd.Flags().IntVarP(&pageSize, "size", "s", 20, "Page size (max 100)")
	_ = feedCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(feedCmd)

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score one content item for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(apiFlag, userID, contentID, os.Stdout)
		},
	}
	scoreCmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	scoreCmd.Flags().StringVarP(&contentID, "content", "c", "", "Content ID (required)")
	rootCmd.AddCommand(scoreCmd)

	factorsCmd := &cobra.Command{
		Use:   "factors USER_ID",
		Short: "Show the personalization factors of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFactors(apiFlag, args[0], os.Stdout)
		},
	}
	rootCmd.AddCommand(factorsCmd)
}
