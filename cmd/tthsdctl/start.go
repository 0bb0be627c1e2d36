package tthsdctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tthsd/engine/internal/engineapi"
)

var startCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Begin a Created session in serial mode (start_download_id)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		if err := engineapi.StartDownloadID(id); err != nil {
			return err
		}
		fmt.Println("started")
		return nil
	},
}

var startMultiCmd = &cobra.Command{
	Use:   "start-multi <id>",
	Short: "Begin a Created session in parallel mode (start_multiple_downloads_id)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		if err := engineapi.StartMultipleDownloadsID(id); err != nil {
			return err
		}
		fmt.Println("started")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(startMultiCmd)
}
