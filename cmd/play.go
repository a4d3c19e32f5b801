package cmd

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"kalah/engine"
	"kalah/experiments"
	"kalah/experiments/metrics"
	"kalah/game"
	"kalah/meta"
	"kalah/policy"
)

// kalah play
func Play() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game against the computer",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`play starts an interactive game on the configured board.
			Your pits are along the bottom, numbered from 1 on the left,
			with your store on the right. Type a pit number to sow it,
			or q to give up.

			The opponent is one of agent, random, greedy, minimax or
			mcts. The agent opponent is loaded from the model file.

			--board, --stores and --to-move start the game from a given
			position instead of the opening. Pits are listed from player
			0's first pit to player 1's last.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			seat, _ := cmd.Flags().GetInt("seat")
			if seat != 0 && seat != 1 {
				return fmt.Errorf("seat must be 0 or 1, got %d", seat)
			}

			kind, _ := cmd.Flags().GetString("opponent")
			depth, _ := cmd.Flags().GetInt("depth")
			opponent, err := experiments.NewPolicy(c.Game, metrics.PlayerConfig{
				Kind:       kind,
				Depth:      depth,
				Goroutines: meta.GO_ROUTINES,
				Episodes:   meta.EPISODES,
				Cutoff:     meta.WITH_CUTOFF,
				Model:      modelPath(cmd, c),
			}, newRand(cmd, c))
			if err != nil {
				return err
			}

			options, err := startOptions(cmd, c.Game)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			b := newBoard(out, seat)

			var seats [game.NumPlayers]policy.Policy
			seats[seat] = policy.NewHuman(cmd.InOrStdin(), out, cancel)
			seats[game.Opponent(seat)] = opponent

			match := engine.NewMatch(c.Game, seats[0], seats[1], append(options,
				engine.WithObserver(func(before game.GameState, outcome game.MoveOutcome, after game.GameState) {
					if ctx.Err() != nil {
						return
					}
					fmt.Fprintln(out, b.Describe(before, outcome))
					fmt.Fprint(out, b.Render(after))
				}),
			)...)

			fmt.Fprintf(out, "you are player %d against %s\n", seat, kind)
			fmt.Fprint(out, b.Render(match.State()))
			winner, gameMetric, _ := match.Run(ctx)
			if ctx.Err() != nil {
				fmt.Fprintln(out, "game abandoned")
				return nil
			}
			fmt.Fprintln(out, b.Result(winner, gameMetric.Scores))
			return nil
		},
	}

	cmd.Flags().StringP("opponent", "o", experiments.KindMinimax, "Opponent kind: agent, random, greedy, minimax or mcts")
	cmd.Flags().IntP("seat", "s", 0, "Your seat; player 0 moves first")
	cmd.Flags().Int("depth", meta.MINIMAX_DEPTH, "Search depth of the minimax opponent")
	cmd.Flags().String("model", "", "Model file for the agent opponent (defaults to the configured path)")
	cmd.Flags().Uint64("seed", 0, "Random seed (defaults to the configured seed)")
	cmd.Flags().IntSlice("board", nil, "Seeds in every pit of the starting position")
	cmd.Flags().IntSlice("stores", []int{0, 0}, "Seeds in both stores of the starting position")
	cmd.Flags().Int("to-move", 0, "Player to move in the starting position")

	return cmd
}

// startOptions turns the position flags into a match option. Without --board
// the game starts from the opening.
func startOptions(cmd *cobra.Command, c game.Config) ([]engine.Option, error) {
	if !cmd.Flag("board").Changed {
		return nil, nil
	}
	board, _ := cmd.Flags().GetIntSlice("board")
	stores, _ := cmd.Flags().GetIntSlice("stores")
	toMove, _ := cmd.Flags().GetInt("to-move")
	if len(stores) != game.NumPlayers {
		return nil, fmt.Errorf("stores needs %d values, got %d", game.NumPlayers, len(stores))
	}

	state := game.GameState{
		Board:         board,
		Stores:        [game.NumPlayers]int{stores[0], stores[1]},
		CurrentPlayer: toMove,
	}
	if err := game.NewEngine(c).SetState(state); err != nil {
		return nil, err
	}
	return []engine.Option{engine.WithState(state)}, nil
}
