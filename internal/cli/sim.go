package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/moorebrett0/hogotchi/internal/analytics"
	"github.com/moorebrett0/hogotchi/internal/config"
	"github.com/moorebrett0/hogotchi/internal/pet"
)

// SimOptions holds flags for the sim command.
type SimOptions struct {
	Name      string
	Analytics bool
}

// simStep is one parsed simulation step.
type simStep struct {
	kind   string // "tick", "tap" or an action name
	action pet.Action
	count  int
}

// SimRecord is the output for one simulation step.
type SimRecord struct {
	Step        string           `json:"step"`
	State       pet.State        `json:"state"`
	Feedback    string           `json:"feedback,omitempty"`
	Transitions []pet.Transition `json:"transitions,omitempty"`
}

// NewSimCommand creates the sim command.
func NewSimCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimOptions{}

	cmd := &cobra.Command{
		Use:   "sim <step>...",
		Short: "Replay a sequence of ticks and actions offline",
		Long: `Run a fresh pet through a scripted sequence without timers or transports.

Steps:
  tick, tick:N       apply one (or N) rounds of decay
  feed, play, sleep  care actions
  pet                affection
  tap                pet with the surprise animation

Example:
  hogotchi sim tick:10 feed play
  hogotchi sim --format json tick:30 sleep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseSteps(args)
			if err != nil {
				return err
			}

			var sink pet.AnalyticsSink
			if opts.Analytics {
				sink = analytics.Logger{}
			}
			setupLogger(config.LogConfig{Level: "warn", Format: "text"}, rootOpts.Verbose)

			e := pet.New(pet.Config{Name: opts.Name, DecayInterval: time.Hour}, sink)
			defer e.Close()

			return simulate(cmd.OutOrStdout(), rootOpts.Format, e, steps)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", pet.DefaultName, "pet name")
	cmd.Flags().BoolVar(&opts.Analytics, "analytics", false, "log analytics events")

	return cmd
}

func parseSteps(args []string) ([]simStep, error) {
	steps := make([]simStep, 0, len(args))
	for _, arg := range args {
		arg = strings.ToLower(strings.TrimSpace(arg))
		name, countStr, hasCount := strings.Cut(arg, ":")

		switch name {
		case "tick":
			n := 1
			if hasCount {
				v, err := strconv.Atoi(countStr)
				if err != nil || v < 1 {
					return nil, fmt.Errorf("invalid tick count in %q", arg)
				}
				n = v
			}
			steps = append(steps, simStep{kind: "tick", count: n})
		case "tap":
			if hasCount {
				return nil, fmt.Errorf("step %q takes no count", arg)
			}
			steps = append(steps, simStep{kind: "tap"})
		default:
			a, ok := pet.ParseAction(name)
			if !ok || hasCount {
				return nil, fmt.Errorf("unknown step %q", arg)
			}
			steps = append(steps, simStep{kind: string(a), action: a})
		}
	}
	return steps, nil
}

func simulate(out io.Writer, format string, e *pet.Engine, steps []simStep) error {
	transitions, cancel := e.Transitions()
	defer cancel()

	enc := json.NewEncoder(out)
	emit := func(rec SimRecord) error {
		if format == "json" {
			return enc.Encode(rec)
		}
		fmt.Fprintf(out, "%-8s %s\n", rec.Step, rec.State)
		if rec.Feedback != "" {
			fmt.Fprintf(out, "         %s\n", rec.Feedback)
		}
		for _, t := range rec.Transitions {
			fmt.Fprintf(out, "         %s\n", describeTransition(t))
		}
		return nil
	}

	for _, st := range steps {
		rec := SimRecord{Step: st.kind}
		switch st.kind {
		case "tick":
			if st.count > 1 {
				rec.Step = fmt.Sprintf("tick:%d", st.count)
			}
			for i := 0; i < st.count; i++ {
				e.Tick()
			}
		case "tap":
			rec.Feedback = e.OnTap().Feedback
		default:
			res, _ := e.ApplyAction(st.action)
			rec.Feedback = res.Feedback
		}
		rec.State = e.Snapshot()
		rec.Transitions = drain(transitions)

		if err := emit(rec); err != nil {
			return err
		}
	}
	return nil
}

// drain collects the transitions already delivered to ch.
func drain(ch <-chan pet.Transition) []pet.Transition {
	var out []pet.Transition
	for {
		select {
		case t, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, t)
		default:
			return out
		}
	}
}

func describeTransition(t pet.Transition) string {
	if t.Kind == pet.TransitionLevelUp {
		return fmt.Sprintf("level up: %d -> %d", t.FromLevel, t.ToLevel)
	}
	return fmt.Sprintf("mood: %s -> %s", t.FromMood, t.ToMood)
}
