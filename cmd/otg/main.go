// Command otg runs JSON-described motion problems through the trajectory
// generator. The run subcommand writes the sampled log as JSON; the plot
// subcommand renders the sampled trajectory to an HTML page.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sevenphase/otg/internal/sim"
)

func main() {
	root := &cli.Command{
		Name:  "otg",
		Usage: "jerk-limited online trajectory generation",
		Commands: []*cli.Command{
			{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "Run a motion described by a JSON file (or stdin) and write the sampled log as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Path of the motion JSON; '-' or empty reads stdin",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					data, err := readInput(cmd.String("input"))
					if err != nil {
						return err
					}
					result, err := sim.RunJSON(string(data))
					if err != nil {
						return err
					}
					fmt.Println(result)
					return nil
				},
			},
			{
				Name:    "plot",
				Aliases: []string{"p"},
				Usage:   "Run a motion and render position/velocity/acceleration charts to an HTML page",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Path of the motion JSON; '-' or empty reads stdin",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the HTML page to write",
						Value:   "trajectory.html",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					data, err := readInput(cmd.String("input"))
					if err != nil {
						return err
					}
					return plot(data, cmd.String("output"))
				},
			},
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "otg: %v\n", err)
		os.Exit(1)
	}
}

// readInput reads the motion document from path, or stdin when path is
// empty or "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
