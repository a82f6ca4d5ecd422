package interactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"rolebot/clients"
	"rolebot/clients/chatrelay"
	"rolebot/core"
	"rolebot/core/log"
	"rolebot/metrics"
	"rolebot/models"
	"rolebot/services"
	"rolebot/utils"
)

const (
	CommandGroup           = "ai"
	SubcommandRoleMenu     = "rol_create"
	SubcommandWhatsApp     = "whatsapp"
	SubcommandEmail        = "email"
	SubcommandWhatsAppInit = "whatsapp_init"

	relayInitTimeout = 2 * time.Minute
)

// CommandsUseCase implements the bot's slash commands
type CommandsUseCase struct {
	roleMenuService   services.RoleMenuService
	deferredResponder services.DeferredResponderService
	relayClient       clients.ChatRelayClient
	mailClient        clients.MailClient
}

func NewCommandsUseCase(
	roleMenuService services.RoleMenuService,
	deferredResponder services.DeferredResponderService,
	relayClient clients.ChatRelayClient,
	mailClient clients.MailClient,
) *CommandsUseCase {
	return &CommandsUseCase{
		roleMenuService:   roleMenuService,
		deferredResponder: deferredResponder,
		relayClient:       relayClient,
		mailClient:        mailClient,
	}
}

// NewCommandRegistry builds the registry with every command of the bot
func NewCommandRegistry(commands *CommandsUseCase) *Registry {
	registry := NewRegistry()
	registry.DescribeGroup(CommandGroup, "Comandos de IA")

	registry.MustRegister(CommandDescriptor{
		Name:        CommandGroup,
		Subcommand:  SubcommandRoleMenu,
		Description: "Crea un mensaje con sistema de roles por reacciones",
		Handler:     commands.CreateRoleMenu,
	})
	registry.MustRegister(CommandDescriptor{
		Name:        CommandGroup,
		Subcommand:  SubcommandWhatsApp,
		Description: "Envía un mensaje de WhatsApp",
		Params: []ParamSpec{
			{Name: "numero", Description: "Número de teléfono con código de país", Required: true},
			{Name: "mensaje", Description: "Mensaje a enviar", Required: true},
			{Name: "remitente", Description: "Nombre de quien envía"},
		},
		Handler: commands.SendWhatsApp,
	})
	registry.MustRegister(CommandDescriptor{
		Name:        CommandGroup,
		Subcommand:  SubcommandEmail,
		Description: "Envía un correo electrónico",
		Params: []ParamSpec{
			{Name: "de", Description: "Correo del remitente", Required: true},
			{Name: "para", Description: "Correo del destinatario", Required: true},
			{Name: "asunto", Description: "Asunto del correo", Required: true},
			{Name: "mensaje", Description: "Contenido del correo", Required: true},
			{Name: "clave", Description: "Contraseña SMTP del remitente (opcional)"},
		},
		Handler: commands.SendEmail,
	})
	registry.MustRegister(CommandDescriptor{
		Name:        CommandGroup,
		Subcommand:  SubcommandWhatsAppInit,
		Description: "Inicializa la conexión de WhatsApp",
		Handler:     commands.InitWhatsApp,
	})
	return registry
}

// CreateRoleMenu posts the role menu and decorates it with the binding reactions afterwards
func (c *CommandsUseCase) CreateRoleMenu(
	ctx context.Context,
	interaction *discordgo.Interaction,
	invocation models.CommandInvocation,
) (models.InteractionReply, error) {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{c.roleMenuService.RenderMenu()},
		},
	}
	return c.deferredResponder.AfterReply(interaction, invocation.Key(), response, c.roleMenuService.DecorateMenu), nil
}

func (c *CommandsUseCase) SendWhatsApp(
	ctx context.Context,
	interaction *discordgo.Interaction,
	invocation models.CommandInvocation,
) (models.InteractionReply, error) {
	recipient := utils.NormalizePhoneNumber(invocation.Option("numero").OrEmpty())
	if recipient == "" {
		return models.InteractionReply{}, fmt.Errorf("el número no contiene dígitos: %w", core.ErrValidation)
	}

	body := invocation.Option("mensaje").MustGet()
	if sender, ok := invocation.Option("remitente").Get(); ok {
		body = fmt.Sprintf("*%s*: %s", sender, body)
	}
	msg := models.RelayMessage{
		Recipient: recipient,
		Body:      body,
		Sender:    invocation.Option("remitente").OrEmpty(),
	}

	ack := fmt.Sprintf("⏳ Enviando mensaje de WhatsApp a +%s...", recipient)
	return c.deferredResponder.Defer(interaction, invocation.Key(), ack, func(ctx context.Context) (string, error) {
		id, err := c.relayClient.SendMessage(ctx, msg)
		if err != nil {
			metrics.RelaySends.WithLabelValues("whatsapp", "failed").Inc()
			if errors.Is(err, chatrelay.ErrNotReady) {
				return "", fmt.Errorf("el canal de WhatsApp no está conectado, usa /ai whatsapp_init: %w", err)
			}
			return "", err
		}
		metrics.RelaySends.WithLabelValues("whatsapp", "sent").Inc()
		log.Info("✅ WhatsApp message to %s sent with id %s", recipient, id)
		return fmt.Sprintf("✅ Mensaje de WhatsApp enviado a +%s (ID: %s)", recipient, id), nil
	}), nil
}

func (c *CommandsUseCase) SendEmail(
	ctx context.Context,
	interaction *discordgo.Interaction,
	invocation models.CommandInvocation,
) (models.InteractionReply, error) {
	msg := models.MailMessage{
		From:     invocation.Option("de").MustGet(),
		To:       invocation.Option("para").MustGet(),
		Subject:  invocation.Option("asunto").MustGet(),
		Body:     invocation.Option("mensaje").MustGet(),
		Password: invocation.Option("clave").OrEmpty(),
	}

	ack := fmt.Sprintf("⏳ Enviando email a %s...", msg.To)
	return c.deferredResponder.Defer(interaction, invocation.Key(), ack, func(ctx context.Context) (string, error) {
		id, err := c.mailClient.SendMail(ctx, msg)
		if err != nil {
			metrics.RelaySends.WithLabelValues("email", "failed").Inc()
			return "", err
		}
		metrics.RelaySends.WithLabelValues("email", "sent").Inc()
		log.Info("✅ Email to %s sent with id %s", msg.To, id)
		return fmt.Sprintf("✅ Email enviado a %s (ID: %s)", msg.To, id), nil
	}), nil
}

// InitWhatsApp starts pairing of the relay channel; the pairing code is delivered out of band
func (c *CommandsUseCase) InitWhatsApp(
	ctx context.Context,
	interaction *discordgo.Interaction,
	invocation models.CommandInvocation,
) (models.InteractionReply, error) {
	ack := "⏳ Inicializando WhatsApp..."
	return c.deferredResponder.Defer(interaction, invocation.Key(), ack, func(ctx context.Context) (string, error) {
		initCtx, cancel := context.WithTimeout(ctx, relayInitTimeout)
		defer cancel()

		status, err := c.relayClient.Init(initCtx)
		if err != nil {
			return "", err
		}
		switch status.State {
		case models.RelayStateReady:
			return "✅ WhatsApp está conectado y listo para enviar mensajes.", nil
		case models.RelayStatePairing:
			return "📱 Código de emparejamiento generado. Escanéalo desde los logs del servidor para vincular la cuenta.", nil
		default:
			return fmt.Sprintf("⚠️ WhatsApp quedó en estado %s.", status.State), nil
		}
	}), nil
}
