package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"glide/internal/input"
	"glide/internal/motion"
	"glide/internal/params"

	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Render intervals into a recorder and print the micro-steps",
	Long: `Runs the renderer in real time against a recorder instead of the pointer,
then prints every emitted move, its offset from the interval start and the
per-interval sums.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		x, _ := cmd.Flags().GetFloat64("x")
		y, _ := cmd.Flags().GetFloat64("y")
		interval, _ := cmd.Flags().GetFloat64("interval")
		rate, _ := cmd.Flags().GetInt("rate")
		count, _ := cmd.Flags().GetInt("intervals")
		jsonMode, _ := cmd.Flags().GetBool("json")

		p := params.Params{X: x, Y: y, IntervalMs: interval}.Clamp()
		if count < 1 {
			count = 1
		}
		return simulate(p, rate, count, jsonMode)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Float64("x", params.DefaultX, "Horizontal displacement per interval")
	simulateCmd.Flags().Float64("y", params.DefaultY, "Vertical displacement per interval")
	simulateCmd.Flags().Float64("interval", params.DefaultIntervalMs, "Interval length in milliseconds")
	simulateCmd.Flags().Int("rate", motion.DefaultRateHz, "Micro-step rate in Hz")
	simulateCmd.Flags().IntP("intervals", "n", 1, "Number of intervals to render")
	simulateCmd.Flags().Bool("json", false, "Print the result as JSON")
}

type simulatedStep struct {
	input.Move
	OffsetMs float64 `json:"offset_ms"`
}

type simulatedInterval struct {
	Steps        int             `json:"steps"`
	Moves        []simulatedStep `json:"moves"`
	SumX         int             `json:"sum_x"`
	SumY         int             `json:"sum_y"`
	MaxOvershoot float64         `json:"max_overshoot_ms"`
}

func simulate(p params.Params, rate, count int, jsonMode bool) error {
	rec := input.NewRecorder()
	r := motion.NewRenderer(rec, motion.Options{RateHz: rate})
	req := motion.Request{DX: p.X, DY: p.Y, IntervalMs: p.IntervalMs}

	var (
		start time.Time
		steps []simulatedStep
	)
	rec.OnMove = func(n int, m input.Move) {
		steps = append(steps, simulatedStep{Move: m, OffsetMs: float64(time.Since(start)) / float64(time.Millisecond)})
	}

	results := make([]simulatedInterval, 0, count)
	for i := 0; i < count; i++ {
		steps = nil
		start = time.Now()
		res := r.Render(req, nil)
		results = append(results, simulatedInterval{
			Steps:        res.Steps,
			Moves:        steps,
			SumX:         res.SumX,
			SumY:         res.SumY,
			MaxOvershoot: float64(res.MaxOvershoot) / float64(time.Millisecond),
		})
	}

	if jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"params":    p,
			"rate_hz":   r.RateHz(),
			"intervals": results,
		})
	}

	fmt.Printf("%s at %d Hz: %d micro-steps per interval\n", p, r.RateHz(), r.Steps(p.IntervalMs))
	for i, iv := range results {
		fmt.Printf("\nInterval %d\n", i+1)
		for _, s := range iv.Moves {
			fmt.Printf("  %8.3f ms  dx=%-4d dy=%-4d\n", s.OffsetMs, s.DX, s.DY)
		}
		fmt.Printf("  emitted %d moves, sum (%d, %d), worst lateness %.3f ms\n", len(iv.Moves), iv.SumX, iv.SumY, iv.MaxOvershoot)
	}
	return nil
}
