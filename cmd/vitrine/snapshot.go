package main

import (
	"context"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/taigrr/vitrine/pkg/config"
	"github.com/taigrr/vitrine/pkg/render"
	"github.com/taigrr/vitrine/pkg/viewer"
)

type snapshotOptions struct {
	Output string
	Width  int
	Height int
	Yaw    float64 // degrees around the model
	Pitch  float64 // degrees above the model
	Bounds bool
	Axes   bool
}

func snapshotCmd(f *flags) *cobra.Command {
	so := snapshotOptions{Output: "snapshot.png", Width: 800, Height: 600}
	cmd := &cobra.Command{
		Use:     "snapshot <model>",
		Short:   "Render a single frame to a PNG file",
		Example: "  vitrine snapshot model.glb -o model.png --yaw 30 --pitch 20",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			return snapshot(cmd.Context(), cfg, args[0], so)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&so.Output, "output", "o", so.Output, "PNG file to write")
	fl.IntVar(&so.Width, "width", so.Width, "image width in pixels")
	fl.IntVar(&so.Height, "height", so.Height, "image height in pixels")
	fl.Float64Var(&so.Yaw, "yaw", 0, "orbit around the model, degrees")
	fl.Float64Var(&so.Pitch, "pitch", 0, "orbit above the model, degrees")
	fl.BoolVar(&so.Bounds, "bounds", false, "outline the bounding box")
	fl.BoolVar(&so.Axes, "axes", false, "draw world axes")
	return cmd
}

// snapshot loads path, frames it and writes one frame to so.Output.
func snapshot(ctx context.Context, cfg config.Config, path string, so snapshotOptions) error {
	if so.Width <= 0 || so.Height <= 0 {
		return errors.Errorf("invalid image size %dx%d", so.Width, so.Height)
	}
	s, err := newSession(cfg, os.Stderr, func(o *viewer.Options) {
		// Apply the requested orbit in one step.
		o.Controls.EnableDamping = false
	})
	if err != nil {
		return err
	}
	defer s.close()

	v := s.viewer
	if err := v.Load(ctx, path); err != nil {
		return err
	}
	v.SetAspectRatio(float64(so.Width) / float64(so.Height))
	if so.Yaw != 0 || so.Pitch != 0 {
		v.Rotate(mgl64.DegToRad(so.Yaw), mgl64.DegToRad(so.Pitch))
		v.Step(0)
	}

	fb := render.NewFramebuffer(so.Width, so.Height)
	draw := cfg.DrawOptions()
	draw.Bounds, draw.Axes = so.Bounds, so.Axes
	v.Draw(render.NewRasterizer(v.Camera(), fb), draw)

	if err := fb.SavePNG(so.Output); err != nil {
		return err
	}
	cur, _ := v.Current()
	s.log.Info("snapshot written", "path", so.Output, "model", cur.Name, "triangles", cur.Triangles)
	return nil
}
