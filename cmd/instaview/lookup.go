package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"instaview/pkg/provider"
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <username or profile URL>",
	Short: "Fetch a profile and print it as JSON",
	Long: `Fetch a single Instagram profile through the configured backend and
print the canonical profile JSON to stdout.

The argument may be a bare username, an @-prefixed handle, or a full
profile URL; it is normalized before the lookup.`,
	Example: `  instaview lookup natgeo
  instaview lookup @natgeo
  instaview lookup https://instagram.com/natgeo/`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	svc, err := provider.NewService(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build provider: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Provider.RequestTimeout)
	defer cancel()

	profile, apiErr := svc.GetProfile(ctx, args[0])
	if apiErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", apiErr.Code, apiErr.Message)
		if apiErr.Details != "" {
			fmt.Fprintln(os.Stderr, apiErr.Details)
		}
		os.Exit(1)
	}

	out, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
