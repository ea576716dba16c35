package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marketgame/market-engine/internal/config"
	"github.com/marketgame/market-engine/internal/game"
	"github.com/marketgame/market-engine/internal/scenario"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play a game headlessly with a built-in strategy and print the standings",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		strategyName, _ := cmd.Flags().GetString("strategy")
		if cmd.Flags().Changed("seed") {
			cfg.Game.Seed, _ = cmd.Flags().GetUint64("seed")
		}
		if cmd.Flags().Changed("scenario") {
			cfg.Game.Scenario, _ = cmd.Flags().GetString("scenario")
		}
		return simulate(cmd.OutOrStdout(), cfg, days, strategyName, slog.Default())
	},
}

func init() {
	simulateCmd.Flags().Int("days", 30, "number of days to play")
	simulateCmd.Flags().String("strategy", "trend", "strategy every player runs each day (value, trend)")
	simulateCmd.Flags().Uint64("seed", 0, "random seed (0 seeds from the clock)")
	simulateCmd.Flags().String("scenario", "default", fmt.Sprintf("scenario to play %v", scenario.Names()))
}

// simulate plays days turns where every active player runs the strategy
// before the day advances.
func simulate(out io.Writer, cfg *config.Config, days int, strategyName string, logger *slog.Logger) error {
	rng := newSource(cfg.Game.Seed)
	s, err := scenario.Build(cfg.Game.Scenario, cfg.Market(), rng, logger, cfg.Game.InboxWindow)
	if err != nil {
		return err
	}
	g := game.New(s, cfg.Orchestrator(), rng, logger)
	g.Start()

	for day := 0; day < days && !g.Over(); day++ {
		for _, p := range g.Players() {
			if !p.Active() {
				continue
			}
			if _, err := g.RunStrategy(p.ID, strategyName); err != nil {
				return err
			}
		}
		g.NextDay()
	}

	m := g.Market()
	fmt.Fprintf(out, "Day %d, %s market\n\n", m.Day(), m.Regime().Name())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tSTATUS\tCAPITAL\tNET WORTH")
	for _, st := range g.Standings() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.Name, st.Status, st.Capital.StringFixed(2), st.NetWorth.StringFixed(2))
	}
	return tw.Flush()
}
