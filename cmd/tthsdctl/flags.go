package tthsdctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tthsd/engine/internal/clipboard"
	"github.com/tthsd/engine/internal/config"
	"github.com/tthsd/engine/internal/engineapi"
	"github.com/tthsd/engine/internal/humanize"
)

// addCommonTaskFlags registers the flags shared by every command that
// builds a Tasks batch (get, add).
func addCommonTaskFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Directory to save downloaded files into")
	cmd.Flags().StringP("batch", "b", "", "File of URLs to download, one per line")
	cmd.Flags().Bool("clipboard", false, "Read URLs (one per line) from the system clipboard")
	cmd.Flags().IntP("threads", "t", config.DefaultThreadCount, "Worker pool size per task")
	cmd.Flags().Int("chunk-mb", config.DefaultChunkMB, "Range-planner chunk size, in MiB")
	cmd.Flags().String("user-agent", "", "User-Agent header to send (default: engine default)")
	cmd.Flags().String("remote", "", "Remote sink URL to also emit events to")
	cmd.Flags().Bool("socket", false, "Use raw TCP instead of WebSocket for --remote")
	cmd.Flags().Bool("quiet", false, "Suppress the default stdout event printer")
}

func mustFlagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

// collectURLs merges positional args, --batch file contents, and
// --clipboard (in that order) into one URL list.
func collectURLs(cmd *cobra.Command, args []string) ([]string, error) {
	var urls []string
	urls = append(urls, args...)

	if batchFile, _ := cmd.Flags().GetString("batch"); batchFile != "" {
		contents, err := os.ReadFile(batchFile)
		if err != nil {
			return nil, fmt.Errorf("read batch file: %w", err)
		}
		urls = append(urls, readBatchFile(string(contents))...)
	}

	if fromClipboard, _ := cmd.Flags().GetBool("clipboard"); fromClipboard {
		cURLs, err := clipboard.ReadURLs()
		if err != nil {
			return nil, fmt.Errorf("read clipboard: %w", err)
		}
		urls = append(urls, cURLs...)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs given (pass as args, --batch, or --clipboard)")
	}
	return urls, nil
}

// optionsFromFlags builds an engineapi.Options from the common task flags
// plus cb, the in-process callback to register (nil for none).
func optionsFromFlags(cmd *cobra.Command, cb func(eventJSON, dataJSON string)) engineapi.Options {
	threads, _ := cmd.Flags().GetInt("threads")
	chunkMB, _ := cmd.Flags().GetInt("chunk-mb")
	ua, _ := cmd.Flags().GetString("user-agent")
	remote, _ := cmd.Flags().GetString("remote")
	socket, _ := cmd.Flags().GetBool("socket")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if quiet {
		cb = nil
	}

	return engineapi.Options{
		Threads:        threads,
		ChunkMB:        chunkMB,
		Callback:       cb,
		UseCallbackURL: remote != "",
		UserAgent:      ua,
		CallbackURL:    remote,
		UseSocket:      socket,
	}
}

// printEventCallback is the default in-process callback: one line per
// lifecycle event to stdout. Registered unless --quiet or --tui is set.
func printEventCallback(eventJSON, dataJSON string) {
	env, data, err := decodeEvent(eventJSON, dataJSON)
	if err != nil {
		return
	}
	switch env.Type {
	case "start":
		fmt.Printf("session %s: started\n", env.ID)
	case "startOne":
		fmt.Printf("task %s (%s): started\n", env.ID, env.ShowName)
	case "update":
		fmt.Printf("task %s: %s / %s\n", env.ID, humanize.Bytes(data.Downloaded), humanize.Bytes(data.Total))
	case "endOne":
		fmt.Printf("task %s (%s): done\n", env.ID, env.ShowName)
	case "err":
		fmt.Printf("task %s: error: %s\n", env.ID, data.Error)
	case "msg":
		fmt.Printf("session %s: %s\n", env.ID, data.Text)
	case "end":
		fmt.Printf("session %s: all tasks finished\n", env.ID)
	}
}
