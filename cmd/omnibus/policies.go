package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/omnibus/pkg/omnibus"
	"github.com/randalmurphal/omnibus/pkg/omnibus/policy"
	"github.com/randalmurphal/omnibus/pkg/omnibus/stream"
	"github.com/randalmurphal/omnibus/pkg/omnibus/task"
)

var (
	startedColor  = color.New(color.FgCyan).SprintFunc()
	completeColor = color.New(color.FgGreen).SprintFunc()
	canceledColor = color.New(color.FgYellow).SprintFunc()
	triggerColor  = color.New(color.Faint).SprintFunc()
	headerColor   = color.New(color.Bold).SprintFunc()
)

type policiesOptions struct {
	names    []string
	events   int
	interval time.Duration
	delay    time.Duration
}

// tally counts one policy run.
type tally struct {
	triggered, started, completed, canceled int
}

func newPoliciesCommand(a *app) *cobra.Command {
	opts := policiesOptions{}

	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Run the same burst of events under each concurrency policy",
		Example: `  omnibus policies
  omnibus policies --policy restarting --policy toggling --events 4 --interval 40ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			policies := policy.All()
			if len(opts.names) > 0 {
				policies = nil
				for _, name := range opts.names {
					p, err := policy.Parse(name)
					if err != nil {
						return err
					}
					policies = append(policies, p)
				}
			}
			for _, p := range policies {
				t, err := a.runPolicy(cmd.Context(), p, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s: %d triggered, %d started, %d completed, %d canceled\n\n",
					p, t.triggered, t.started, t.completed, t.canceled)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&opts.names, "policy", nil, "policies to run (default all)")
	cmd.Flags().IntVar(&opts.events, "events", 3, "events per burst")
	cmd.Flags().DurationVar(&opts.interval, "interval", task.ThresholdChorus, "time between events")
	cmd.Flags().DurationVar(&opts.delay, "delay", task.ThresholdEcho, "duration of each task")
	return cmd
}

// runPolicy triggers opts.events events on a fresh channel whose listener
// runs under p, printing every lifecycle notification as it happens.
func (a *app) runPolicy(ctx context.Context, p policy.Policy, opts policiesOptions) (tally, error) {
	chOpts := append(a.settings.ChannelOptions(a.settings.Logger(a.errOut)), omnibus.WithName(p.String()))
	ch := omnibus.New[int](chOpts...)
	defer ch.Reset()

	fmt.Fprintln(a.out, headerColor(p.String()))

	begin := time.Now()
	line := func(n int, what string) {
		fmt.Fprintf(a.out, "  +%4dms  #%d  %s\n", time.Since(begin).Milliseconds(), n, what)
	}

	var (
		t      tally
		active int
	)
	ch.Spy(nil, func(n int) {
		t.triggered++
		line(n, triggerColor("triggered"))
	})
	omnibus.Listen(ch, nil, func(_ context.Context, n int) (any, error) {
		return task.After(opts.delay, n), nil
	},
		omnibus.WithPolicy(p),
		omnibus.WithListenerName("demo"),
		omnibus.WithObserver(omnibus.TaskObserver[int]{
			Subscribe: func(n int) {
				t.started++
				active++
				line(n, startedColor("started"))
			},
			Complete: func(n int) {
				t.completed++
				active--
				line(n, completeColor("complete"))
			},
			Unsubscribe: func(n int) {
				t.canceled++
				active--
				line(n, canceledColor("canceled"))
			},
		}),
	)

	for n := 1; n <= opts.events; n++ {
		if n > 1 && opts.interval > 0 {
			time.Sleep(opts.interval)
		}
		if err := ch.Trigger(n); err != nil {
			return t, err
		}
	}

	var final tally
	err := waitIdle(ctx, ch.Scheduler(), func() bool {
		final = t
		return active == 0
	})
	return final, err
}

// waitIdle polls idle until it reports true. Each poll runs as a work item
// on sched, so it never observes a task handoff half done.
func waitIdle(ctx context.Context, sched stream.Scheduler, idle func() bool) error {
	for {
		done := make(chan bool, 1)
		sched.Schedule(func() { done <- idle() })
		select {
		case ok := <-done:
			if ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case <-time.After(time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
