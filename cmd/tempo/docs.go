package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naveenspark/tempo/internal/browser"
)

// openURL is swapped out in tests.
var openURL = browser.Open

func (c *cli) docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Open the API documentation in a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			url := cfg.APIURL + "/docs"
			if err := openURL(url); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Could not open a browser. Visit:\n  %s\n", url)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", url)
			return nil
		},
	}
}
