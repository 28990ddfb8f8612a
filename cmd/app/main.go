package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli"

	"github.com/tothgergo2092/behaviour-analysis/internal/config"
	"github.com/tothgergo2092/behaviour-analysis/internal/extract"
	"github.com/tothgergo2092/behaviour-analysis/internal/grid"
	"github.com/tothgergo2092/behaviour-analysis/internal/logger"
	"github.com/tothgergo2092/behaviour-analysis/internal/partition"
	"github.com/tothgergo2092/behaviour-analysis/internal/pipeline"
	"github.com/tothgergo2092/behaviour-analysis/internal/video"
)

var app = cli.NewApp()
var log = logger.Log

var configFlag = cli.StringFlag{
	Name:  "config, c",
	Usage: "path to the TOML run configuration",
	Value: "config.toml",
}

func init() {
	app.Name = "behaviour-split"
	app.Usage = "Split videos into grid clips and distribute them to annotation workers"
	app.HideVersion = true
	app.Commands = []cli.Command{
		{
			Name:    "run",
			Aliases: []string{"r"},
			Usage:   "Split every source video and distribute the clips",
			Flags:   []cli.Flag{configFlag},
			Action:  runAction,
		},
		{
			Name:   "plan",
			Usage:  "Show the grid and expected per-worker load without touching any file",
			Flags:  []cli.Flag{configFlag},
			Action: planAction,
		},
		{
			Name:  "split",
			Usage: "Split a single video into a folder, no distribution",
			Flags: []cli.Flag{
				configFlag,
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output folder for the clips",
					Value: "parts",
				},
			},
			Action: splitAction,
		},
		{
			Name:  "sample-config",
			Usage: "Print a sample configuration",
			Action: func(*cli.Context) error {
				fmt.Print(config.Sample())
				return nil
			},
		},
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := pipeline.Run(ctx, cfg, video.FFmpeg{})
	if stats.Placed > 0 {
		fmt.Println(renderSummary(stats))
	}
	return err
}

func planAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	videos, err := pipeline.Discover(cfg.Source.Dir, cfg.Source.Extensions)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		log.Warnf("no videos found in %s", cfg.Source.Dir)
		return nil
	}

	spec := grid.Spec{Rows: cfg.Grid.NParts, Cols: cfg.Grid.MParts}
	codec := video.FFmpeg{}
	ctx := context.Background()

	total := 0
	rows := make([][]string, 0, len(videos))
	for _, path := range videos {
		src, err := codec.Open(ctx, path)
		if err != nil {
			return err
		}
		meta := src.Meta()
		_ = src.Close()

		cells, err := grid.Plan(meta.Width, meta.Height, spec)
		if err != nil {
			return err
		}
		total += len(cells)
		rows = append(rows, []string{
			filepath.Base(path),
			fmt.Sprintf("%dx%d", meta.Width, meta.Height),
			fmt.Sprintf("%d", meta.Frames),
			fmt.Sprintf("%d", len(cells)),
		})
	}

	fmt.Println(renderPlan(rows, total, len(cfg.Workers.Dirs)))
	return nil
}

func splitAction(c *cli.Context) error {
	path := c.Args().Get(0)
	if path == "" {
		return fmt.Errorf("video filename is required")
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec := video.FFmpeg{}
	src, err := codec.Open(ctx, path)
	if err != nil {
		return err
	}
	meta := src.Meta()
	_ = src.Close()

	cells, err := grid.Plan(meta.Width, meta.Height, grid.Spec{Rows: cfg.Grid.NParts, Cols: cfg.Grid.MParts})
	if err != nil {
		return err
	}

	runner := partition.NewRunner(extract.New(codec), cfg.Pool.Size)
	artifacts, err := runner.Split(ctx, path, out, cells)
	for _, a := range artifacts {
		log.Infof("%s: %d frames, %dx%d", a.Path, a.Frames, a.Cell.W, a.Cell.H)
	}
	return err
}

func main() {
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
