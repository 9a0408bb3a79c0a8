package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/omnibus/pkg/omnibus/action"
	"github.com/randalmurphal/omnibus/pkg/omnibus/service"
	"github.com/randalmurphal/omnibus/pkg/omnibus/task"
)

// counterNamespace is also the key for the counter's entry under services
// in the settings file.
const counterNamespace = "counter"

var (
	errorColor = color.New(color.FgRed).SprintFunc()
	stateColor = color.New(color.Bold, color.FgGreen).SprintFunc()
)

func newCounterCommand(a *app) *cobra.Command {
	var (
		delay time.Duration
		where string
	)

	cmd := &cobra.Command{
		Use:   "counter [increment...]",
		Short: "Send increments to a counter service and print its actions",
		Example: `  omnibus counter 1 2 3.5
  omnibus counter --where 'type == "counter/next" && payload > 0' -- 1 -4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			incs := make([]float64, 0, len(args))
			for _, arg := range args {
				inc, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("increment %q: %w", arg, err)
				}
				incs = append(incs, inc)
			}

			expr, err := action.Compile(where)
			if err != nil {
				return err
			}
			return a.runCounter(cmd.Context(), incs, delay, expr)
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 0, "time each increment takes")
	cmd.Flags().StringVar(&where, "where", "", "CEL expression selecting which actions to print")
	return cmd
}

func counterConfig(delay time.Duration) service.Config[float64, float64, float64] {
	return service.Config[float64, float64, float64]{
		Namespace: counterNamespace,
		Handler: func(_ context.Context, inc float64) (any, error) {
			return task.After(delay, inc), nil
		},
		Reducer: func(acts service.ActionSet[float64, float64]) service.Reducer[float64] {
			return service.ReducerFunc[float64](func(total float64, a action.Action) float64 {
				if inc, ok := acts.Next.Payload(a); ok {
					return total + inc
				}
				return total
			})
		},
	}
}

func (a *app) runCounter(ctx context.Context, incs []float64, delay time.Duration, expr *action.Expression) error {
	cfg := counterConfig(delay)
	cfg.Policy = a.settings.PolicyFor(counterNamespace)
	cfg.Logger = a.settings.Logger(a.errOut)

	svc, err := service.NewStandalone(cfg, a.settings.ChannelOptions(cfg.Logger)...)
	if err != nil {
		return err
	}
	defer svc.Stop()

	svc.Spy(expr.Match, func(act action.Action) {
		if act.Error {
			fmt.Fprintf(a.out, "%s %v\n", errorColor(act.Type), act.Payload)
			return
		}
		if act.Payload == nil {
			fmt.Fprintln(a.out, act.Type)
			return
		}
		fmt.Fprintf(a.out, "%s %v\n", act.Type, act.Payload)
	})

	for _, inc := range incs {
		if _, err := svc.Send(ctx, inc); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "%s %v\n", stateColor("state"), svc.State().Get())
	return nil
}
