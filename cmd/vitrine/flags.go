package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/taigrr/vitrine/pkg/config"
)

// flags are the command line overrides. They only replace config values
// when set explicitly.
type flags struct {
	configPath string
	fps        int
	background string
	framing    string
	mode       string
	noTextures bool
	remote     bool
	listen     string
	watch      bool
	logLevel   string
	logFile    string
}

func (f *flags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&f.background, "bg", "", "background color (#rrggbb)")
	pf.StringVar(&f.framing, "framing", "", "framing preset: plain or upright")
	pf.StringVar(&f.mode, "mode", "", "render mode: solid or wireframe")
	pf.BoolVar(&f.noTextures, "no-textures", false, "ignore material textures")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&f.logFile, "log-file", "", "write logs to this file")

	lf := cmd.Flags()
	lf.IntVar(&f.fps, "fps", 0, "target frames per second")
	lf.BoolVar(&f.remote, "remote", false, "enable the HTTP control server")
	lf.StringVar(&f.listen, "listen", "", "control server address")
	lf.BoolVarP(&f.watch, "watch", "w", false, "reload the model when its file changes")
}

// config loads the config file and applies the flags the user set.
func (f *flags) config(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("fps") {
		cfg.Render.FPS = f.fps
	}
	if changed("bg") {
		cfg.Background = f.background
	}
	if changed("framing") {
		cfg.Framing = config.Framing{Preset: f.framing}
	}
	if changed("mode") {
		cfg.Render.Mode = f.mode
	}
	if changed("no-textures") {
		cfg.Render.Textures = !f.noTextures
	}
	if changed("remote") {
		cfg.Remote.Enabled = f.remote
	}
	if changed("listen") {
		cfg.Remote.Listen = f.listen
		cfg.Remote.Enabled = true
	}
	if changed("watch") {
		cfg.Watch.Enabled = f.watch
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-file") {
		cfg.Log.File = f.logFile
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid settings")
	}
	return cfg, nil
}
