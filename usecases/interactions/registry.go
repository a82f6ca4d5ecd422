package interactions

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"rolebot/models"
)

// Handler answers a routed command. It must return within the reply budget; slow work
// goes into the reply's FollowUp.
type Handler func(
	ctx context.Context,
	interaction *discordgo.Interaction,
	invocation models.CommandInvocation,
) (models.InteractionReply, error)

// ParamSpec describes one command option
type ParamSpec struct {
	Name        string
	Description string
	Required    bool
	Type        discordgo.ApplicationCommandOptionType
}

// CommandDescriptor binds a command (or subcommand) to its parameter schema and handler
type CommandDescriptor struct {
	Name        string
	Subcommand  string
	Description string
	Params      []ParamSpec
	Handler     Handler
}

// Key returns "name" or "name/subcommand"
func (d CommandDescriptor) Key() string {
	return models.CommandKey(d.Name, d.Subcommand)
}

// MissingParams lists required params absent (or blank) in the invocation
func (d CommandDescriptor) MissingParams(invocation models.CommandInvocation) []string {
	var missing []string
	for _, param := range d.Params {
		if param.Required && invocation.Option(param.Name).IsAbsent() {
			missing = append(missing, param.Name)
		}
	}
	return missing
}

// Registry holds command descriptors in registration order
type Registry struct {
	descriptors map[string]CommandDescriptor
	order       []string
	groups      map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]CommandDescriptor),
		groups:      make(map[string]string),
	}
}

// DescribeGroup sets the description of a top-level command that only has subcommands
func (r *Registry) DescribeGroup(name, description string) {
	r.groups[name] = description
}

func (r *Registry) Register(descriptor CommandDescriptor) error {
	if descriptor.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if descriptor.Handler == nil {
		return fmt.Errorf("command %s has no handler", descriptor.Key())
	}
	key := descriptor.Key()
	if _, exists := r.descriptors[key]; exists {
		return fmt.Errorf("command %s is already registered", key)
	}
	if descriptor.Subcommand != "" {
		if _, exists := r.descriptors[descriptor.Name]; exists {
			return fmt.Errorf("command %s cannot have both options and subcommands", descriptor.Name)
		}
	} else if r.hasSubcommands(descriptor.Name) {
		return fmt.Errorf("command %s cannot have both options and subcommands", descriptor.Name)
	}

	r.descriptors[key] = descriptor
	r.order = append(r.order, key)
	return nil
}

// MustRegister panics if the descriptor cannot be registered
func (r *Registry) MustRegister(descriptor CommandDescriptor) {
	if err := r.Register(descriptor); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(key string) mo.Option[CommandDescriptor] {
	descriptor, ok := r.descriptors[key]
	if !ok {
		return mo.None[CommandDescriptor]()
	}
	return mo.Some(descriptor)
}

// Descriptors returns all descriptors in registration order
func (r *Registry) Descriptors() []CommandDescriptor {
	out := make([]CommandDescriptor, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.descriptors[key])
	}
	return out
}

// ApplicationCommands derives the platform command set. Descriptors sharing a name
// become subcommands of a single top-level command.
func (r *Registry) ApplicationCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	byName := make(map[string]*discordgo.ApplicationCommand)

	for _, descriptor := range r.Descriptors() {
		if descriptor.Subcommand == "" {
			commands = append(commands, &discordgo.ApplicationCommand{
				Name:        descriptor.Name,
				Description: descriptor.Description,
				Options:     paramOptions(descriptor.Params),
			})
			continue
		}

		command, ok := byName[descriptor.Name]
		if !ok {
			description := r.groups[descriptor.Name]
			if description == "" {
				description = descriptor.Name
			}
			command = &discordgo.ApplicationCommand{
				Name:        descriptor.Name,
				Description: description,
			}
			byName[descriptor.Name] = command
			commands = append(commands, command)
		}
		command.Options = append(command.Options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        descriptor.Subcommand,
			Description: descriptor.Description,
			Options:     paramOptions(descriptor.Params),
		})
	}
	return commands
}

func (r *Registry) hasSubcommands(name string) bool {
	for _, descriptor := range r.descriptors {
		if descriptor.Name == name && descriptor.Subcommand != "" {
			return true
		}
	}
	return false
}

func paramOptions(params []ParamSpec) []*discordgo.ApplicationCommandOption {
	if len(params) == 0 {
		return nil
	}
	options := make([]*discordgo.ApplicationCommandOption, 0, len(params))
	for _, param := range params {
		optionType := param.Type
		if optionType == 0 {
			optionType = discordgo.ApplicationCommandOptionString
		}
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        optionType,
			Name:        param.Name,
			Description: param.Description,
			Required:    param.Required,
		})
	}
	return options
}
