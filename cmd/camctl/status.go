package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zanzhit/ptz_console/internal/domain/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query camera liveness and tracking state",
}

var aliveCmd = &cobra.Command{
	Use:   "alive",
	Short: "Check which cameras answer over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		alive, err := newClient().Alive(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(alive)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "CAMERA\tREACHABLE")
		fmt.Fprintln(w, "------\t---------")

		for _, id := range sortedKeys(alive) {
			fmt.Fprintf(w, "%d\t%t\n", id, alive[id])
		}

		return w.Flush()
	},
}

var infoCmd = &cobra.Command{
	Use:   "info GROUP_ID",
	Short: "Show gesture and recording settings for a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		poll, err := newClient().GroupInfo(cmd.Context(), id)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(poll)
		}

		printPoll(poll)

		return nil
	},
}

var trackingCmd = &cobra.Command{
	Use:   "tracking GROUP_ID",
	Short: "Show whether tracking is active on each camera of a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		states, err := newClient().GroupTracking(cmd.Context(), id)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(states)
		}

		printActive(states)

		return nil
	},
}

var gesturesOffCmd = &cobra.Command{
	Use:   "gestures-off CAMERA_ID",
	Short: "Disable every gesture control on a camera",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		reset, err := newClient().DisableGestures(cmd.Context(), id)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(reset)
		}

		for _, path := range []string{models.PathGestureLock, models.PathGestureRecord, models.PathGestureZoom} {
			o := reset.Outcomes[path]
			fmt.Printf("%-32s %s %s\n", path, o.Kind, o.Message)
		}

		printPoll(reset.State)

		return nil
	},
}

func printPoll(poll models.TrackingPoll) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CAMERA\tLOCK\tRECORD\tZOOM\tRESOLUTION\tERROR")
	fmt.Fprintln(w, "------\t----\t------\t----\t----------\t-----")

	for _, id := range sortedKeys(poll.States) {
		s := poll.States[id]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", id, flag(s.LockedTarget), flag(s.Recording), flag(s.Zoom), text(s.Resolution))
	}

	for _, id := range sortedKeys(poll.Errors) {
		fmt.Fprintf(w, "%d\t-\t-\t-\t-\t%s\n", id, poll.Errors[id])
	}
	w.Flush()
}

func printActive(states map[int64]models.ActiveState) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CAMERA\tTRACKING\tERROR")
	fmt.Fprintln(w, "------\t--------\t-----")

	for _, id := range sortedKeys(states) {
		s := states[id]

		tracking := "unknown"
		if s.Known {
			tracking = fmt.Sprint(s.Active)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\n", id, tracking, s.Error)
	}
	w.Flush()
}

func flag(v *bool) string {
	if v == nil {
		return "?"
	}
	if *v {
		return "on"
	}

	return "off"
}

func text(v *string) string {
	if v == nil {
		return "?"
	}

	return *v
}

func init() {
	statusCmd.AddCommand(aliveCmd, infoCmd, trackingCmd)
	rootCmd.AddCommand(gesturesOffCmd)
}
