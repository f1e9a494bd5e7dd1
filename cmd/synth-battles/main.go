// Command synth-battles writes a synthetic cleaned-battles JSON file with
// known ground-truth strengths, for manually exercising the rival driver.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/okian/rival/internal/synth"
	"github.com/okian/rival/pkg/logger"
)

const outputPermission = 0600

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("synth-battles: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	count := flag.Int("count", 10000, "number of battles to generate")
	seed := flag.Int64("seed", 1, "pseudo-random seed")
	judges := flag.Int("judges", 50, "size of the judge pool")
	tieProb := flag.Float64("ties", 0.15, "tie probability")
	output := flag.String("output", "", "output file (default synth_battles_TIMESTAMP.json)")
	flag.Parse()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	log := logger.Get()
	ctx := context.Background()

	g := synth.New(
		synth.WithRand(rand.New(rand.NewSource(*seed))),
		synth.WithJudges(*judges),
		synth.WithTieProbability(*tieProb),
	)
	battles := g.Generate(*count)

	out := *output
	if out == "" {
		out = "synth_battles_" + time.Now().UTC().Format("20060102_150405") + ".json"
	}

	data, err := json.MarshalIndent(battles, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding battles: %w", err)
	}
	if err := os.WriteFile(out, data, outputPermission); err != nil {
		return fmt.Errorf("writing battles: %w", err)
	}

	log.Info(ctx, "wrote synthetic battles",
		logger.String("file", out),
		logger.Int("count", len(battles)),
		logger.Any("models", g.Models()),
	)
	return nil
}
