/*
Package config loads omnibus settings from YAML or JSON.

# Overview

Config wraps a decoded map[string]any with typed accessors that fall back to
a default when a key is missing or holds the wrong shape, so configuration
can be read without a cascade of type assertions:

	cfg := config.New(map[string]any{
	    "delay":   "250ms",
	    "retries": 3,
	})

	delay := cfg.Duration("delay", time.Second) // 250ms
	retries := cfg.Int("retries", 1)            // 3
	name := cfg.String("name", "omnibus")       // "omnibus"

Duration accepts duration strings and bare numbers of seconds. Int accepts a
float64 only when it is whole, which is how JSON numbers decode. Sub descends
into a nested mapping.

# Settings

Settings is the typed view used by the omnibus command and examples:

	settings, err := config.Load("omnibus.yaml")
	if err != nil {
	    return err
	}
	ch := omnibus.New[action.Action](settings.ChannelOptions(settings.Logger(os.Stderr))...)
	svc, err := service.New(ch, service.Config[string, Hit, []Hit]{
	    Namespace: "search",
	    Policy:    settings.PolicyFor("search"),
	    Handler:   search,
	})

Policies are named as policy.Parse accepts them: "parallel", "queued",
"restarting", "blocking", "toggling" and "latest-only-queued".

# Thread Safety

A Config is safe for concurrent reads as long as the wrapped map is not
modified after New.
*/
package config
