// Package telegram connects the note service to the Telegram Bot API.
// It owns update routing, status messages and the transport adapters
// that download attachments and upload finished video notes.
package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// API is the subset of the Bot API used to talk to a chat.
// *bot.Bot satisfies it.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
	SendVideoNote(ctx context.Context, params *bot.SendVideoNoteParams) (*models.Message, error)
}

// Client is an API that also routes updates to handlers and polls for them.
type Client interface {
	API
	RegisterHandler(handlerType bot.HandlerType, pattern string, matchType bot.MatchType, f bot.HandlerFunc, m ...bot.Middleware) string
	RegisterHandlerMatchFunc(matchFunc bot.MatchFunc, f bot.HandlerFunc, m ...bot.Middleware) string
	Start(ctx context.Context)
}

// Compile-time check that the library client satisfies Client.
var _ Client = (*bot.Bot)(nil)

// NewClient creates a Bot API client for token. Updates are delivered to the
// handlers registered later through Bot.
//
// Handlers run on the polling workers, so Start returns only after every
// handler it dispatched has returned.
func NewClient(token string, opts ...bot.Option) (*bot.Bot, error) {
	opts = append([]bot.Option{bot.WithNotAsyncHandlers()}, opts...)
	return bot.New(token, opts...)
}
