// Command gen-players writes a synthetic player pool as JSON, ready to feed
// into "squadopt optimize".
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/okian/squadopt/internal/testplayers"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gen-players", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		clubs      = fs.Int("clubs", testplayers.DefaultClubs, "Number of clubs")
		seed       = fs.Int64("seed", testplayers.DefaultSeed, "Seed for prices and points")
		gk         = fs.Int("gk", testplayers.DefaultGoalkeepers, "Goalkeepers per club")
		def        = fs.Int("def", testplayers.DefaultDefenders, "Defenders per club")
		mid        = fs.Int("mid", testplayers.DefaultMidfielders, "Midfielders per club")
		fwd        = fs.Int("fwd", testplayers.DefaultForwards, "Forwards per club")
		scenario   = fs.Bool("scenario", false, "Write the fixed 20-player scenario instead")
		outputFile = fs.String("output", "", "Output file (default: stdout)")
	)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	players := testplayers.Scenario20()
	if !*scenario {
		players = testplayers.Generate(testplayers.Config{
			Clubs:       *clubs,
			Seed:        *seed,
			Goalkeepers: *gk,
			Defenders:   *def,
			Midfielders: *mid,
			Forwards:    *fwd,
		})
	}

	out := stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Failed to create output file: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := testplayers.WriteJSON(out, players); err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to write players: %v\n", err)
		return 1
	}
	return 0
}
