package port

import "context"

// CommandOption describes one option of a registered slash-style
// command, mirroring the abstract chat-platform SDK surface in
// spec.md §6 (CreateCommandOption in the teacher's original source).
type CommandOption struct {
	Name        string
	Description string
	Required    bool
}

// CommandInvocation is the inbound event handed to a registered
// command's handler.
type CommandInvocation struct {
	GuildID string
	Args    map[string]string
}

// CommandHandler replies to a command invocation. The returned string
// is the reply text; isError marks it as an error reply so the
// gateway client can format it distinctly.
type CommandHandler func(ctx context.Context, inv CommandInvocation) (reply string, isError bool)

// GatewayClient is the abstract remote presence/chat-platform API
// consumed by the Presence Worker, per spec.md §6: "treated as an
// interface with set_nickname(guild, name), set_presence(text),
// register_command(spec), on_command(handler)". A concrete adapter
// wraps whatever SDK or REST surface the deployment actually uses;
// this system ships an HTTP-based one (internal/adapters/presenceapi).
type GatewayClient interface {
	// Guilds lists the guild/server ids the bot currently belongs to.
	Guilds(ctx context.Context) ([]string, error)

	// SetNickname sets the bot's display name within one guild.
	SetNickname(ctx context.Context, guildID, name string) error

	// SetPresence sets the bot's rotating status text, process-wide.
	SetPresence(ctx context.Context, text string) error

	// RegisterCommand declares a slash-style command at startup.
	RegisterCommand(ctx context.Context, name, description string, options []CommandOption) error

	// OnCommand installs the handler invoked for name. Only one
	// handler per name is supported; a second call replaces the first.
	OnCommand(name string, handler CommandHandler)
}
