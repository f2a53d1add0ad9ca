// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommandExecuteDispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "buxtonctl",
		Subcommands: []*Command{
			{
				Name: "list-keys",
				Run: func(args []string) error {
					called = "list-keys"
					return nil
				},
			},
			{
				Name: "create-group",
				Run: func(args []string) error {
					called = "create-group"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"create-group"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "create-group" {
		t.Errorf("dispatched to %q, want %q", called, "create-group")
	}
}

func TestCommandExecutePassesArgs(t *testing.T) {
	var receivedArgs []string

	root := &Command{
		Name: "buxtonctl",
		Subcommands: []*Command{
			{
				Name: "set-int32",
				Run: func(args []string) error {
					receivedArgs = args
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"set-int32", "base", "net", "mtu", "1500"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	want := []string{"base", "net", "mtu", "1500"}
	if len(receivedArgs) != len(want) {
		t.Fatalf("args = %v, want %v", receivedArgs, want)
	}
	for i := range want {
		if receivedArgs[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, receivedArgs[i], want[i])
		}
	}
}

func TestCommandExecuteFlagParsing(t *testing.T) {
	var configPath string
	var positional string

	command := &Command{
		Name: "get-string",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get-string", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "daemon configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				positional = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--config", "/etc/buxton/buxtond.yaml", "base"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if configPath != "/etc/buxton/buxtond.yaml" {
		t.Errorf("configPath = %q", configPath)
	}
	if positional != "base" {
		t.Errorf("positional = %q, want %q", positional, "base")
	}
}

func TestCommandExecuteUnknownCommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "buxtonctl",
		Subcommands: []*Command{
			{Name: "list-keys", Run: func([]string) error { return nil }},
			{Name: "unset-value", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"list-keyz"})
	if err == nil {
		t.Fatal("Execute() with unknown command succeeded")
	}
	if !strings.Contains(err.Error(), `did you mean "list-keys"`) {
		t.Errorf("error %q lacks a suggestion for list-keys", err)
	}
}

func TestCommandExecuteUnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "get-string",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get-string", pflag.ContinueOnError)
			flagSet.Bool("direct", false, "bypass the daemon")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--dierct"})
	if err == nil {
		t.Fatal("Execute() with unknown flag succeeded")
	}
	if !strings.Contains(err.Error(), "--direct") {
		t.Errorf("error %q lacks a suggestion for --direct", err)
	}
}

func TestCommandPrintHelpListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "buxtonctl",
		Summary: "Manage Buxton configuration",
		Subcommands: []*Command{
			{Name: "list-keys", Summary: "List a layer's keys"},
			{Name: "create-group", Summary: "Create a group"},
		},
	}

	var out bytes.Buffer
	root.PrintHelp(&out)
	help := out.String()
	for _, want := range []string{"list-keys", "create-group", "List a layer's keys"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output lacks %q:\n%s", want, help)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"list-keys", "list-keyz", 1},
		{"set-label", "get-label", 1},
		{"kitten", "sitting", 3},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
