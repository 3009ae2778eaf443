package telegram

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/maauso/videonote-bot/internal/media"
	"github.com/maauso/videonote-bot/internal/note"
)

// Processor turns one inbound video into a video note reply.
type Processor interface {
	Process(ctx context.Context, req note.Request) error
	Params() media.Params
}

// Bot routes updates to the note processor and keeps the user informed.
type Bot struct {
	client    Client
	processor Processor
	logger    *slog.Logger
	texts     Texts

	enableAsyncProcess bool

	// mu guards draining; once set, no new work joins inFlight.
	mu       sync.Mutex
	draining bool
	inFlight sync.WaitGroup
}

// BotOption is a function that configures a Bot.
type BotOption func(*Bot)

// WithTexts replaces the default replies.
func WithTexts(t Texts) BotOption {
	return func(b *Bot) {
		b.texts = t
	}
}

// WithAsyncProcessing enables or disables background processing.
// When disabled, the video handler returns only after the reply is sent.
func WithAsyncProcessing(enabled bool) BotOption {
	return func(b *Bot) {
		b.enableAsyncProcess = enabled
	}
}

// NewBot creates a Bot and registers its handlers on client.
func NewBot(client Client, processor Processor, logger *slog.Logger, opts ...BotOption) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bot{
		client:             client,
		processor:          processor,
		logger:             logger,
		texts:              DefaultTexts(processor.Params().MaxDurationSec),
		enableAsyncProcess: true,
	}
	for _, opt := range opts {
		opt(b)
	}

	client.RegisterHandler(bot.HandlerTypeMessageText, "start", bot.MatchTypeCommandStartOnly, b.handleStart)
	client.RegisterHandlerMatchFunc(hasVideo, b.handleVideo)

	return b
}

// Run polls for updates until ctx is cancelled, then waits for requests
// already being processed.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("bot polling started")
	b.client.Start(ctx)

	b.mu.Lock()
	b.draining = true
	b.mu.Unlock()

	b.logger.Info("waiting for in-flight requests")
	b.Wait()
	b.logger.Info("bot stopped")
}

// Wait blocks until every background request has finished.
func (b *Bot) Wait() {
	b.inFlight.Wait()
}

// track registers one background request. It reports false once Run has
// started draining.
func (b *Bot) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.draining {
		return false
	}
	b.inFlight.Add(1)
	return true
}

func hasVideo(update *models.Update) bool {
	return update.Message != nil && update.Message.Video != nil
}

func (b *Bot) handleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if _, err := b.reply(ctx, msg.Chat.ID, msg.ID, b.texts.Greeting); err != nil {
		b.logger.Error("failed to send greeting",
			slog.Int64("chat_id", msg.Chat.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bot) handleVideo(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	req := note.Request{
		FileID:    msg.Video.FileID,
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	}

	b.logger.Info("video received",
		slog.Int64("chat_id", req.ChatID),
		slog.Int("message_id", req.MessageID),
		slog.Int("duration", msg.Video.Duration),
		slog.Int("width", msg.Video.Width),
		slog.Int("height", msg.Video.Height),
	)

	// Detached so shutdown lets the request finish instead of failing it.
	ctx = context.WithoutCancel(ctx)

	if !b.enableAsyncProcess {
		b.process(ctx, req)
		return
	}
	if !b.track() {
		b.logger.Warn("video arrived while stopping, processing inline",
			slog.Int64("chat_id", req.ChatID),
		)
		b.process(ctx, req)
		return
	}
	go func() {
		defer b.inFlight.Done()
		b.process(ctx, req)
	}()
}

// process acknowledges the video, runs the conversion and reports the
// outcome in the chat. A panic is logged and answered like any failure.
func (b *Bot) process(ctx context.Context, req note.Request) {
	logger := b.logger.With(
		slog.Int64("chat_id", req.ChatID),
		slog.Int("message_id", req.MessageID),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing video",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			b.sendFailure(ctx, logger, req)
		}
	}()

	// status stays nil when the processing message could not be sent.
	status, err := b.reply(ctx, req.ChatID, req.MessageID, b.texts.Processing)
	if err != nil {
		logger.Warn("failed to send processing message",
			slog.String("error", err.Error()),
		)
	}

	if err := b.processor.Process(ctx, req); err != nil {
		attrs := []any{slog.String("error", err.Error())}
		var terr *media.TranscodeError
		if errors.As(err, &terr) {
			attrs = append(attrs, slog.String("op", terr.Op))
		}
		logger.Error("video note conversion failed", attrs...)
		b.sendFailure(ctx, logger, req)
		return
	}

	logger.Info("video note sent")

	if status == nil {
		return
	}
	if _, err := b.client.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    req.ChatID,
		MessageID: status.ID,
	}); err != nil {
		logger.Warn("failed to delete processing message",
			slog.Int("status_message_id", status.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bot) sendFailure(ctx context.Context, logger *slog.Logger, req note.Request) {
	if _, err := b.reply(ctx, req.ChatID, req.MessageID, b.texts.Failure); err != nil {
		logger.Error("failed to send failure message",
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, messageID int, text string) (*models.Message, error) {
	return b.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: messageID},
	})
}
