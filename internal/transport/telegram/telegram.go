// Package telegram binds the router to the Telegram Bot API: long polling in,
// plain-text sends out. Updates are validated and classified here so the
// router only ever sees tagged events.
package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Kumatsegayie/nunersupportbot/internal/event"
	"github.com/Kumatsegayie/nunersupportbot/internal/transport"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	admins map[int64]struct{}
	log    zerolog.Logger
}

func New(token string, adminIDs []int64, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Bot{api: api, admins: admins, log: log}, nil
}

func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Send implements transport.Sender.
func (b *Bot) Send(_ context.Context, chatID int64, text string) (int64, error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, &transport.DeliveryError{ChatID: chatID, Err: err}
	}
	return int64(sent.MessageID), nil
}

// Run polls for updates and feeds classified events to handle until ctx is
// cancelled. The pending backlog is dropped on startup.
func (b *Bot) Run(ctx context.Context, handle func(context.Context, event.Event)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	updates.Clear()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			ev, ok := Classify(upd, b.admins)
			if !ok {
				b.log.Debug().Int("update_id", upd.UpdateID).Msg("update dropped")
				continue
			}
			handle(ctx, ev)
		}
	}
}

// Classify converts a raw update into a router event. The second return is
// false for updates the router has no business seeing: non-message updates
// and unrecognized commands.
func Classify(upd tgbotapi.Update, admins map[int64]struct{}) (event.Event, bool) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return event.Event{}, false
	}

	ev := event.Event{
		Kind:   event.UserMessage,
		Sender: msg.Chat.ID,
		Chat:   event.ChatOther,
		Text:   msg.Text,
	}
	if _, ok := admins[msg.Chat.ID]; ok {
		ev.Kind = event.AdminMessage
	}
	if msg.Chat.IsPrivate() {
		ev.Chat = event.ChatPrivate
	}
	if ev.Text == "" {
		ev.Text = msg.Caption
	}
	if msg.ReplyToMessage != nil {
		ev.IsReply = true
		ev.RepliedTo = int64(msg.ReplyToMessage.MessageID)
	}
	if msg.From != nil {
		ev.From = event.Profile{
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
		}
	}

	if msg.IsCommand() {
		cmd, ok := commandFor(msg.Command())
		if !ok {
			return event.Event{}, false
		}
		ev.Command = cmd
		ev.Text = msg.CommandArguments()
		if args := strings.Fields(ev.Text); len(args) > 0 {
			ev.Args = args
		}
	}
	return ev, true
}

func commandFor(name string) (event.Command, bool) {
	switch strings.ToLower(name) {
	case "start":
		return event.CmdStart, true
	case "help":
		return event.CmdHelp, true
	case "whoami":
		return event.CmdWhoami, true
	case "debug":
		return event.CmdDebug, true
	case "close":
		return event.CmdClose, true
	case "close_ticket":
		return event.CmdCloseTicket, true
	case "reply":
		return event.CmdReply, true
	default:
		return event.CmdNone, false
	}
}
