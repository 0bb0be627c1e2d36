package tthsdctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tthsd/engine/internal/engineapi"
)

var getCmd = &cobra.Command{
	Use:   "get [urls...]",
	Short: "Create a session without starting it (get_downloader)",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := collectURLs(cmd, args)
		if err != nil {
			return err
		}
		tasksJSON, count, err := buildTasksJSON(urls, mustFlagString(cmd, "output"))
		if err != nil {
			return err
		}
		opts := optionsFromFlags(cmd, printEventCallback)
		id, err := engineapi.GetDownloader(tasksJSON, count, opts)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	addCommonTaskFlags(getCmd)
}
