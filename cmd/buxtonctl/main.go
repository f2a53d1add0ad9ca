// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/buxton-foundation/buxton/cmd/buxtonctl/cli"
	"github.com/buxton-foundation/buxton/lib/client"
	"github.com/buxton-foundation/buxton/lib/config"
	"github.com/buxton-foundation/buxton/lib/protocol"
)

// operations is the subset of the client library the subcommands use.
// The socket-backed client implements it directly; the --direct path
// substitutes an in-process adapter over the store.
type operations interface {
	Set(layer, group, name string, value protocol.Value) error
	Get(layer, group, name string) (protocol.Value, string, error)
	Unset(layer, group, name string) error
	CreateGroup(layer, group string) error
	RemoveGroup(layer, group string) error
	SetLabel(layer, group, name, label string) error
	ListKeys(layer string) ([]string, error)
	Close() error
}

// globalOptions carries the flags shared by every subcommand.
type globalOptions struct {
	direct     bool
	configPath string
}

func (g *globalOptions) addFlags(flagSet *pflag.FlagSet) {
	flagSet.BoolVar(&g.direct, "direct", false, "open the database in-process instead of talking to the daemon (requires root)")
	flagSet.StringVar(&g.configPath, "config", "", "daemon configuration file (default: $BUXTON_CONFIG)")
}

// open returns the operations backend the flags select.
func (g *globalOptions) open() (operations, error) {
	if g.direct {
		return openDirect(g.configPath)
	}
	return client.Connect(config.SocketPathFromEnv(), nil)
}

func main() {
	if err := rootCommand().Execute(os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCommand() *cli.Command {
	root := &cli.Command{
		Name:    "buxtonctl",
		Summary: "Manage the Buxton configuration database",
		Description: "buxtonctl reads and writes the layered Buxton configuration\n" +
			"database, by default through the running daemon.",
		Examples: []cli.Example{
			{Description: "Create a group in the base layer", Command: "buxtonctl create-group base net"},
			{Description: "Set and read back an MTU", Command: "buxtonctl set-int32 base net mtu 1500 && buxtonctl get-int32 net mtu"},
			{Description: "List a layer's keys", Command: "buxtonctl list-keys base"},
		},
	}

	dataTypes := []protocol.DataType{
		protocol.String, protocol.Int32, protocol.UInt32, protocol.Int64,
		protocol.UInt64, protocol.Float, protocol.Double, protocol.Boolean,
	}
	for _, dataType := range dataTypes {
		root.Subcommands = append(root.Subcommands, getCommand(dataType), setCommand(dataType))
	}
	root.Subcommands = append(root.Subcommands,
		unsetCommand(),
		getLabelCommand(),
		setLabelCommand(),
		createGroupCommand(),
		removeGroupCommand(),
		listKeysCommand(),
	)
	return root
}

// withBackend wraps a subcommand body with backend selection and
// teardown.
func withBackend(options *globalOptions, run func(ops operations, args []string) error) func([]string) error {
	return func(args []string) error {
		ops, err := options.open()
		if err != nil {
			return err
		}
		defer ops.Close()
		return run(ops, args)
	}
}

// commandFlags builds the standard flag set for a subcommand.
func commandFlags(name string, options *globalOptions) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
		options.addFlags(flagSet)
		return flagSet
	}
}

func getCommand(dataType protocol.DataType) *cli.Command {
	name := "get-" + dataType.String()
	options := &globalOptions{}
	return &cli.Command{
		Name:    name,
		Summary: fmt.Sprintf("Read a %s value", dataType),
		Usage:   fmt.Sprintf("buxtonctl %s [layer] <group> <name>", name),
		Flags:   commandFlags(name, options),
		Run: withBackend(options, func(ops operations, args []string) error {
			var layer, group, keyName string
			switch len(args) {
			case 2:
				group, keyName = args[0], args[1]
			case 3:
				layer, group, keyName = args[0], args[1], args[2]
			default:
				return fmt.Errorf("usage: %s [layer] <group> <name>", name)
			}
			value, _, err := ops.Get(layer, group, keyName)
			if err != nil {
				return err
			}
			if value.Type != dataType {
				return fmt.Errorf("%s/%s is %s, not %s", group, keyName, value.Type, dataType)
			}
			fmt.Println(value.Format())
			return nil
		}),
	}
}

func setCommand(dataType protocol.DataType) *cli.Command {
	name := "set-" + dataType.String()
	options := &globalOptions{}
	return &cli.Command{
		Name:    name,
		Summary: fmt.Sprintf("Write a %s value", dataType),
		Usage:   fmt.Sprintf("buxtonctl %s <layer> <group> <name> <value>", name),
		Flags:   commandFlags(name, options),
		Run: withBackend(options, func(ops operations, args []string) error {
			if len(args) != 4 {
				return fmt.Errorf("usage: %s <layer> <group> <name> <value>", name)
			}
			value, err := parseValue(dataType, args[3])
			if err != nil {
				return err
			}
			return ops.Set(args[0], args[1], args[2], value)
		}),
	}
}

func unsetCommand() *cli.Command {
	options := &globalOptions{}
	return &cli.Command{
		Name:    "unset-value",
		Summary: "Remove a value from a layer",
		Usage:   "buxtonctl unset-value <layer> <group> <name>",
		Flags:   commandFlags("unset-value", options),
		Run: withBackend(options, func(ops operations, args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("usage: unset-value <layer> <group> <name>")
			}
			return ops.Unset(args[0], args[1], args[2])
		}),
	}
}

func getLabelCommand() *cli.Command {
	options := &globalOptions{}
	return &cli.Command{
		Name:    "get-label",
		Summary: "Read the label on a group or value",
		Usage:   "buxtonctl get-label <layer> <group> [name]",
		Flags:   commandFlags("get-label", options),
		Run: withBackend(options, func(ops operations, args []string) error {
			var layer, group, name string
			switch len(args) {
			case 2:
				layer, group = args[0], args[1]
			case 3:
				layer, group, name = args[0], args[1], args[2]
			default:
				return fmt.Errorf("usage: get-label <layer> <group> [name]")
			}
			_, label, err := ops.Get(layer, group, name)
			if err != nil {
				return err
			}
			fmt.Println(label)
			return nil
		}),
	}
}

func setLabelCommand() *cli.Command {
	options := &globalOptions{}
	return &cli.Command{
		Name:    "set-label",
		Summary: "Replace the label on a group or value (system layers, root only)",
		Usage:   "buxtonctl set-label <layer> <group> [name] <label>",
		Flags:   commandFlags("set-label", options),
		Run: withBackend(options, func(ops operations, args []string) error {
			var layer, group, name, label string
			switch len(args) {
			case 3:
				layer, group, label = args[0], args[1], args[2]
			case 4:
				layer, group, name, label = args[0], args[1], args[2], args[3]
			default:
				return fmt.Errorf("usage: set-label <layer> <group> [name] <label>")
			}
			return ops.SetLabel(layer, group, name, label)
		}),
	}
}

func createGroupCommand() *cli.Command {
	options := &globalOptions{}
	return &cli.Command{
		Name:    "create-group",
		Summary: "Create a group in a layer",
		Usage:   "buxtonctl create-group <layer> <group>",
		Flags:   commandFlags("create-group", options),
		Run: withBackend(options, func(ops operations, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: create-group <layer> <group>")
			}
			return ops.CreateGroup(args[0], args[1])
		}),
	}
}

func removeGroupCommand() *cli.Command {
	options := &globalOptions{}
	return &cli.Command{
		Name:    "remove-group",
		Summary: "Remove a group and every key under it",
		Usage:   "buxtonctl remove-group <layer> <group>",
		Flags:   commandFlags("remove-group", options),
		Run: withBackend(options, func(ops operations, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: remove-group <layer> <group>")
			}
			return ops.RemoveGroup(args[0], args[1])
		}),
	}
}

func listKeysCommand() *cli.Command {
	options := &globalOptions{}
	return &cli.Command{
		Name:    "list-keys",
		Summary: "List a layer's keys",
		Usage:   "buxtonctl list-keys <layer>",
		Flags:   commandFlags("list-keys", options),
		Run: withBackend(options, func(ops operations, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: list-keys <layer>")
			}
			keys, err := ops.ListKeys(args[0])
			if err != nil {
				return err
			}
			printKeys(keys)
			return nil
		}),
	}
}
