package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zanzhit/ptz_console/internal/domain/models"
)

var (
	cameraName  string
	cameraIP    string
	cameraGroup int64
)

var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "Manage cameras",
}

var camerasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cameras",
	RunE: func(cmd *cobra.Command, args []string) error {
		cams, err := newClient().Cameras(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cams)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tIP\tGROUP")
		fmt.Fprintln(w, "--\t----\t--\t-----")

		for _, c := range cams {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", c.ID, c.Name, c.IP, c.GroupID)
		}

		return w.Flush()
	},
}

var camerasAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Register a camera in a group",
	Example: `  camctl cameras add --name "Stage left" --ip 10.0.0.21 --group 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cam, err := newClient().CreateCamera(cmd.Context(), models.Camera{
			Name:    cameraName,
			IP:      cameraIP,
			GroupID: cameraGroup,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cam)
		}

		fmt.Printf("Camera %q created with ID %d\n", cam.Name, cam.ID)

		return nil
	},
}

var camerasDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Remove a camera",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		if err := newClient().DeleteCamera(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Printf("Camera %d deleted\n", id)

		return nil
	},
}

func init() {
	camerasAddCmd.Flags().StringVar(&cameraName, "name", "", "camera name")
	camerasAddCmd.Flags().StringVar(&cameraIP, "ip", "", "camera address")
	camerasAddCmd.Flags().Int64Var(&cameraGroup, "group", 0, "group ID")
	_ = camerasAddCmd.MarkFlagRequired("name")
	_ = camerasAddCmd.MarkFlagRequired("ip")
	_ = camerasAddCmd.MarkFlagRequired("group")

	camerasCmd.AddCommand(camerasListCmd, camerasAddCmd, camerasDeleteCmd)
}
