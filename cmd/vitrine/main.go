// vitrine - Terminal 3D Model Viewer
// View OBJ, GLTF and GLB files in your terminal, and swap the model from
// another process over a local control API.
//
// Controls:
//
//	Mouse drag  - Orbit the camera
//	Scroll, +/- - Zoom in/out
//	W/S         - Orbit up/down
//	A/D         - Orbit left/right
//	R           - Reset framing
//	T           - Toggle textures
//	X           - Toggle wireframe
//	B           - Toggle bounding box
//	C           - Clear the model
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := fang.Execute(context.Background(), rootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "vitrine [model.glb|model.gltf|model.obj]",
		Short: "Terminal 3D model viewer",
		Long: "vitrine renders a GLTF, GLB or OBJ model in the terminal and frames it\n" +
			"automatically. With --remote, other processes can load and clear models\n" +
			"over HTTP and follow load events on a websocket.",
		Example: "  vitrine model.glb\n" +
			"  vitrine --framing upright --fps 60 scan.obj\n" +
			"  vitrine --remote --listen 127.0.0.1:7878",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			var model string
			if len(args) == 1 {
				model = args[0]
			}
			return runInteractive(cmd.Context(), cfg, model)
		},
	}
	f.register(cmd)
	cmd.AddCommand(snapshotCmd(f))
	return cmd
}
