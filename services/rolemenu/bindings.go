package rolemenu

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/mo"

	"rolebot/core"
	"rolebot/core/log"
	"rolebot/models"
)

// DefaultMenuTitle is the exact embed title that marks a role-menu message
const DefaultMenuTitle = "🎯 Sistema de Roles de Reunión"

// DefaultBindings are used when no bindings file is configured
func DefaultBindings() []models.RoleBinding {
	return []models.RoleBinding{
		{Emoji: "👔", RoleName: "JEFE DE REUNION"},
		{Emoji: "🙋‍♂️", RoleName: "PARTICIPANTE DE REUNION"},
	}
}

// Bindings is an ordered emoji -> role name table with a disjoint emoji set
type Bindings struct {
	ordered []models.RoleBinding
	byEmoji map[string]string
}

// NewBindings validates and indexes the given bindings
func NewBindings(bindings []models.RoleBinding) (*Bindings, error) {
	if len(bindings) == 0 {
		return nil, fmt.Errorf("at least one role binding is required: %w", core.ErrConfiguration)
	}

	b := &Bindings{
		ordered: make([]models.RoleBinding, 0, len(bindings)),
		byEmoji: make(map[string]string, len(bindings)),
	}
	for i, binding := range bindings {
		emoji := strings.TrimSpace(binding.Emoji)
		roleName := strings.TrimSpace(binding.RoleName)
		if emoji == "" || roleName == "" {
			return nil, fmt.Errorf("role binding %d needs both emoji and role: %w", i, core.ErrConfiguration)
		}
		if existing, ok := b.byEmoji[normalizeEmoji(emoji)]; ok {
			return nil, fmt.Errorf(
				"emoji %s is bound to both %q and %q: %w",
				emoji, existing, roleName, core.ErrConfiguration,
			)
		}
		b.byEmoji[normalizeEmoji(emoji)] = roleName
		b.ordered = append(b.ordered, models.RoleBinding{Emoji: emoji, RoleName: roleName})
	}
	return b, nil
}

// LoadBindings reads bindings from a YAML file, or returns the defaults when path is empty.
//
//	bindings:
//	  - emoji: "👔"
//	    role: "JEFE DE REUNION"
func LoadBindings(path string) (*Bindings, error) {
	if path == "" {
		log.Info("📋 Using default role bindings")
		return NewBindings(DefaultBindings())
	}

	log.Info("📋 Loading role bindings from %s", path)
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load role bindings file %s: %w", path, err)
	}

	var parsed struct {
		Bindings []models.RoleBinding `koanf:"bindings"`
	}
	if err := k.Unmarshal("", &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse role bindings file %s: %w", path, err)
	}

	bindings, err := NewBindings(parsed.Bindings)
	if err != nil {
		return nil, fmt.Errorf("invalid role bindings file %s: %w", path, err)
	}
	log.Info("📋 Loaded %d role bindings", len(bindings.ordered))
	return bindings, nil
}

// RoleFor returns the role name bound to an emoji
func (b *Bindings) RoleFor(emoji string) mo.Option[string] {
	roleName, ok := b.byEmoji[normalizeEmoji(emoji)]
	if !ok {
		return mo.None[string]()
	}
	return mo.Some(roleName)
}

// All returns the bindings in configuration order
func (b *Bindings) All() []models.RoleBinding {
	out := make([]models.RoleBinding, len(b.ordered))
	copy(out, b.ordered)
	return out
}

// normalizeEmoji drops variation selectors, which clients add or omit inconsistently
func normalizeEmoji(emoji string) string {
	return strings.ReplaceAll(strings.TrimSpace(emoji), "\ufe0f", "")
}
