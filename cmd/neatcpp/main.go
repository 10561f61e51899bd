package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/fwessels/neatcpp"
	"github.com/fwessels/neatcpp/internal/config"
	"github.com/fwessels/neatcpp/internal/diag"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "neatcpp"
	app.Usage = "Expand C macros and resolve conditionals while keeping the code readable"
	app.ArgsUsage = "INPUT... OUTPUT"
	app.DisableSliceFlagSeparator = true
	app.Flags = []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "include",
			Aliases: []string{"i"},
			Usage:   "Search `DIR` for include files",
		},
		&cli.StringSliceFlag{
			Name:    "silent",
			Aliases: []string{"s"},
			Usage:   "Process `FILE` first for its macros only",
		},
		&cli.StringSliceFlag{
			Name:    "exclude",
			Aliases: []string{"x"},
			Usage:   "Leave macros and includes matching `PATTERN` untouched",
		},
		&cli.StringSliceFlag{
			Name:    "define",
			Aliases: []string{"D"},
			Usage:   "Predefine `NAME[=VALUE]`",
		},
		&cli.BoolFlag{
			Name:    "full",
			Aliases: []string{"f"},
			Usage:   "Keep directives, comments and inactive code in the output",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Read settings from ini `FILE`",
		},
		&cli.IntFlag{
			Name:  "tab-size",
			Usage: "Tab stop width",
		},
		&cli.StringFlag{
			Name:  "dump-macros",
			Usage: "Write the final macro table as JSON to `FILE` (- for stdout)",
		},
		&cli.StringFlag{
			Name:  "expect",
			Usage: "Fail with a diff unless the output equals `FILE`",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Lowest diagnostic level shown: info, warning, critical or severe",
		},
	}
	app.Action = run
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet("tab-size") {
		cfg.TabSize = ctx.Int("tab-size")
	}
	if ctx.IsSet("log-level") {
		level, err := diag.ParseLevel(ctx.String("log-level"))
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}
	if ctx.Bool("full") {
		cfg.FullOutput = true
	}
	cfg.IncludeDirs = append(cfg.IncludeDirs, ctx.StringSlice("include")...)
	cfg.Exclude = append(cfg.Exclude, ctx.StringSlice("exclude")...)
	cfg.Defines = append(cfg.Defines, ctx.StringSlice("define")...)
	return cfg, nil
}

func run(ctx *cli.Context) error {
	args := ctx.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("usage: %s %s", ctx.App.Name, ctx.App.ArgsUsage)
	}
	inputs, output := args[:len(args)-1], args[len(args)-1]

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	errw := ctx.App.ErrWriter
	color := errw == os.Stderr && isatty.IsTerminal(os.Stderr.Fd())
	fs := afero.NewOsFs()
	n, err := neatcpp.NewFromConfig(cfg,
		neatcpp.WithFs(fs),
		neatcpp.WithSink(diag.NewLogger(errw, cfg.LogLevel, color)),
	)
	if err != nil {
		return err
	}

	if err := n.ProcessFilesSilent(ctx.StringSlice("silent")...); err != nil {
		return err
	}
	procErr := n.ProcessFiles(inputs...)

	size, err := n.SaveOutputToFile(output, cfg.FullOutput)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "wrote %s to %s\n", humanize.Bytes(uint64(size)), output)

	if path := ctx.String("dump-macros"); path != "" {
		if err := dumpMacros(fs, n, path, ctx.App.Writer); err != nil {
			return err
		}
	}
	if procErr != nil {
		return procErr
	}
	if path := ctx.String("expect"); path != "" {
		return expect(fs, path, n.Output(cfg.FullOutput))
	}
	return nil
}

func dumpMacros(fs afero.Fs, n *neatcpp.NeatCpp, path string, stdout io.Writer) error {
	if path == "-" {
		return n.WriteMacrosJSON(stdout)
	}
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := n.WriteMacrosJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func expect(fs afero.Fs, path, got string) error {
	want, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	if string(want) == got {
		return nil
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(string(want), got, false))
	return fmt.Errorf("output differs from %s:\n%s", path, dmp.DiffPrettyText(diffs))
}
