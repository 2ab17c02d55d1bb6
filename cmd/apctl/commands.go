package main

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"anchorprint/app"
	"anchorprint/internal/visitors"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// IDCommand prints the visitor identifier of this machine
type IDCommand struct{}

func (c *IDCommand) Name() string        { return "id" }
func (c *IDCommand) Description() string { return "Prints the identifier of this machine" }

func (c *IDCommand) Execute(ctx context.Context, env *Env, args []string) error {
	res, err := get(ctx, env)
	if err != nil {
		return err
	}
	return write(env, map[string]string{
		"visitorId":    res.VisitorID,
		"visitorAlias": visitors.VisitorAlias(res.VisitorID),
		"version":      res.Version,
	})
}

// AnchorCommand prints the stable anchor the identifier is derived from
type AnchorCommand struct{}

func (c *AnchorCommand) Name() string        { return "anchor" }
func (c *AnchorCommand) Description() string { return "Prints the anchor the identifier is hashed from" }

func (c *AnchorCommand) Execute(ctx context.Context, env *Env, args []string) error {
	res, err := get(ctx, env)
	if err != nil {
		return err
	}
	return write(env, res.Anchor)
}

// SignalsCommand prints every collected signal
type SignalsCommand struct{}

func (c *SignalsCommand) Name() string        { return "signals" }
func (c *SignalsCommand) Description() string { return "Prints all collected signals" }

func (c *SignalsCommand) Execute(ctx context.Context, env *Env, args []string) error {
	res, err := get(ctx, env)
	if err != nil {
		return err
	}
	return write(env, res.Signals)
}

// HelpCommand lists the available commands
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows this help" }

func (c *HelpCommand) Execute(ctx context.Context, env *Env, args []string) error {
	usage(env.Out)
	return nil
}

func get(ctx context.Context, env *Env) (*app.Result, error) {
	if env.Agent == nil {
		return nil, fmt.Errorf("agent not loaded")
	}
	debug := env.Debug
	return env.Agent.Get(ctx, app.GetOptions{Debug: &debug})
}

// write encodes v in the requested format. YAML goes through the JSON form
// so that absent signals and deferred values render the same in both.
func write(env *Env, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if env.Format == formatYAML {
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		enc := yaml.NewEncoder(env.Out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(env.Out)
	enc.SetEscapeHTML(false)
	if env.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(json.RawMessage(data))
}
