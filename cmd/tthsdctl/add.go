package tthsdctl

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tthsd/engine/internal/engineapi"
)

// addCmd is the one-shot path: build a Tasks batch and call start_download
// directly, mirroring the teacher's cmd/add.go convenience command. Unlike
// get+start, this never leaves a session sitting in Created.
var addCmd = &cobra.Command{
	Use:   "add [urls...]",
	Short: "Create and immediately start a session (start_download)",
	Long:  `add builds a Tasks batch from positional URLs, --batch, and/or --clipboard, then starts it right away, the same one-step path the teacher's own "surge get" took.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		useTUI, _ := cmd.Flags().GetBool("tui")
		if useTUI {
			if !acquireAddLock() {
				return nil
			}
			defer releaseLock()
		}

		urls, err := collectURLs(cmd, args)
		if err != nil {
			return err
		}
		tasksJSON, count, err := buildTasksJSON(urls, mustFlagString(cmd, "output"))
		if err != nil {
			return err
		}

		parallel, _ := cmd.Flags().GetBool("parallel")

		quiet, _ := cmd.Flags().GetBool("quiet")

		var program *tea.Program
		done := make(chan struct{})
		var printCB func(eventJSON, dataJSON string)
		if !quiet {
			printCB = printEventCallback
		}
		cb := waitForEnd(printCB, done)
		if useTUI {
			m := newRootModel(count)
			program = tea.NewProgram(m)
			cb = func(eventJSON, dataJSON string) {
				program.Send(eventMsg{eventJSON: eventJSON, dataJSON: dataJSON})
			}
		}

		opts := optionsFromFlags(cmd, cb)
		// optionsFromFlags would drop cb to nil under --quiet, which would
		// also lose the done-wrapper above; reassert it here so headless
		// mode still blocks on the batch's "end" event even when quiet.
		opts.Callback = cb
		opts.IsMultiple = &parallel

		id, err := engineapi.StartDownload(tasksJSON, count, opts)
		if err != nil {
			return err
		}

		if program != nil {
			_, runErr := program.Run()
			return runErr
		}

		fmt.Println(id)
		// add is a one-shot convenience command: without blocking here, the
		// process would exit and every Task goroutine would die with it
		// before doing any work. Block until the session's "end" event.
		<-done
		return nil
	},
}

// waitForEnd wraps cb (which may be nil under --quiet) so that the session's
// "end" event also closes done, letting a one-shot headless caller block
// until the whole batch finishes instead of exiting immediately.
func waitForEnd(cb func(eventJSON, dataJSON string), done chan struct{}) func(eventJSON, dataJSON string) {
	return func(eventJSON, dataJSON string) {
		if cb != nil {
			cb(eventJSON, dataJSON)
		}
		env, _, err := decodeEvent(eventJSON, dataJSON)
		if err == nil && env.Type == "end" {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	}
}

// acquireAddLock is a best-effort single-instance guard for --tui mode; a
// lock failure just means another tthsdctl is already driving a TUI, which
// is fine for the headless (non-TUI) default path.
func acquireAddLock() bool {
	ok, err := acquireLock()
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not acquire instance lock:", err)
		return true
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "another tthsdctl instance is already running")
	}
	return ok
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCommonTaskFlags(addCmd)
	addCmd.Flags().Bool("parallel", false, "Run all tasks concurrently (start_multiple_downloads_id semantics)")
	addCmd.Flags().Bool("tui", false, "Show a live progress view instead of printing events")
}
