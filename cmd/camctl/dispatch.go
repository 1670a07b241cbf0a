package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zanzhit/ptz_console/internal/client"
	"github.com/zanzhit/ptz_console/internal/domain/models"
)

var (
	targetGroup  int64
	targetCamera int64
	commandPath  string
	commandData  string
	commandMode  string
	commandVerb  string
	noRefresh    bool
	awaitRefresh bool
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send a raw SDK command to a group or camera",
	Example: `  camctl dispatch --group 1 --path ai/workmode --data '{"mode":"humanTracking"}'
  camctl dispatch --camera 4 --path record/resolution --mode read`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.Command{
			Path:   commandPath,
			Mode:   commandMode,
			Method: commandVerb,
		}

		if commandData != "" {
			if !json.Valid([]byte(commandData)) {
				return fmt.Errorf("--data is not valid JSON")
			}
			c.Data = json.RawMessage(commandData)
		}

		return runRound(cmd.Context(), c)
	},
}

var trackCmd = &cobra.Command{
	Use:       "track start|stop",
	Short:     "Start or stop human tracking",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"start", "stop"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var req models.CommandRequest

		switch args[0] {
		case "start":
			req = models.StartTracking()
		case "stop":
			req = models.StopTracking()
		default:
			return fmt.Errorf("unknown action %q, want start or stop", args[0])
		}

		c, err := fromRequest(req)
		if err != nil {
			return err
		}

		return runRound(cmd.Context(), c)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Move cameras back to the home preset",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := fromRequest(models.ResetPosition())
		if err != nil {
			return err
		}

		return runRound(cmd.Context(), c)
	},
}

func fromRequest(req models.CommandRequest) (client.Command, error) {
	data, err := json.Marshal(req.Payload)
	if err != nil {
		return client.Command{}, err
	}

	return client.Command{
		Path: req.Path,
		Mode: string(req.Mode),
		Data: data,
	}, nil
}

func runRound(ctx context.Context, c client.Command) error {
	if noRefresh {
		refresh := false
		c.Refresh = &refresh
	}
	c.AwaitRefresh = awaitRefresh

	api := newClient()

	var (
		round client.Round
		err   error
	)

	switch {
	case targetGroup > 0 && targetCamera > 0:
		return errors.New("use either --group or --camera, not both")
	case targetGroup > 0:
		round, err = api.DispatchGroup(ctx, targetGroup, c)
	case targetCamera > 0:
		round, err = api.DispatchCamera(ctx, targetCamera, c)
	default:
		return errors.New("one of --group or --camera is required")
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(round)
	}

	printOutcomes(round.Outcomes)

	if round.Refresh != nil {
		switch {
		case round.Refresh.Pending:
			fmt.Println("Tracking state refresh started")
		case round.Refresh.Error != "":
			fmt.Printf("Tracking state refresh: %s\n", round.Refresh.Error)
		default:
			printActive(round.Refresh.States)
		}
	}

	return nil
}

func printOutcomes(outcomes map[int64]models.CommandOutcome) {
	if len(outcomes) == 0 {
		fmt.Println("No cameras addressed")

		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CAMERA\tRESULT\tSTATUS\tMESSAGE")
	fmt.Fprintln(w, "------\t------\t------\t-------")

	for _, id := range sortedKeys(outcomes) {
		o := outcomes[id]

		status := "-"
		if o.StatusCode != 0 {
			status = fmt.Sprint(o.StatusCode)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", id, o.Kind, status, o.Message)
	}
	w.Flush()
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&targetGroup, "group", 0, "target group ID")
	cmd.Flags().Int64Var(&targetCamera, "camera", 0, "target camera ID")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "skip the tracking state refresh")
	cmd.Flags().BoolVar(&awaitRefresh, "wait", false, "wait for the tracking state refresh")
}

func init() {
	dispatchCmd.Flags().StringVar(&commandPath, "path", "", "SDK path, e.g. ai/workmode")
	dispatchCmd.Flags().StringVar(&commandData, "data", "", "JSON payload")
	dispatchCmd.Flags().StringVar(&commandMode, "mode", "", "read or write")
	dispatchCmd.Flags().StringVar(&commandVerb, "method", "", "GET, PUT or POST")
	_ = dispatchCmd.MarkFlagRequired("path")

	for _, cmd := range []*cobra.Command{dispatchCmd, trackCmd, resetCmd} {
		addTargetFlags(cmd)
	}
}
