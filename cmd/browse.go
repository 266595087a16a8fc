package cmd

import "github.com/spf13/cobra"

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Launch the opportunity browser",
	Long:  "Open dropwatch straight in the two-pane opportunity browser.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(true)
	},
}
