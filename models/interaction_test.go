package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandInvocation_Key(t *testing.T) {
	assert.Equal(t, "ai", CommandInvocation{Name: "ai"}.Key())
	assert.Equal(t, "ai/whatsapp", CommandInvocation{Name: "ai", Subcommand: "whatsapp"}.Key())
}

func TestCommandInvocation_Option(t *testing.T) {
	invocation := CommandInvocation{
		Name: "ai",
		Options: []CommandOption{
			{Name: "numero", Value: "5215551234567"},
			{Name: "mensaje", Value: "   "},
			{Name: "intentos", Value: float64(3)},
			{Name: "remitente", Value: nil},
		},
	}

	assert.Equal(t, "5215551234567", invocation.Option("numero").MustGet())
	assert.True(t, invocation.Option("mensaje").IsAbsent(), "whitespace-only values count as missing")
	assert.Equal(t, "3", invocation.Option("intentos").MustGet())
	assert.True(t, invocation.Option("remitente").IsAbsent())
	assert.True(t, invocation.Option("desconocido").IsAbsent())
}
