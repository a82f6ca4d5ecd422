package models

import (
	"fmt"
	"strings"

	"github.com/samber/mo"
)

// CommandOption is a single {name, value} pair supplied with a command invocation
type CommandOption struct {
	Name  string
	Value any
}

// CommandInvocation is the routed, flattened view of an APPLICATION_COMMAND interaction
type CommandInvocation struct {
	Name       string
	Subcommand string
	Options    []CommandOption
	UserID     string
	GuildID    string
	ChannelID  string
}

// Key returns the registry key: "name" or "name/subcommand"
func (c CommandInvocation) Key() string {
	return CommandKey(c.Name, c.Subcommand)
}

// CommandKey builds a registry key from a command name and optional subcommand
func CommandKey(name, subcommand string) string {
	if subcommand == "" {
		return name
	}
	return name + "/" + subcommand
}

// Option returns the value of the named option as a trimmed string
func (c CommandInvocation) Option(name string) mo.Option[string] {
	for _, opt := range c.Options {
		if opt.Name != name || opt.Value == nil {
			continue
		}
		value := strings.TrimSpace(fmt.Sprint(opt.Value))
		if value == "" {
			return mo.None[string]()
		}
		return mo.Some(value)
	}
	return mo.None[string]()
}
