package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/Kumatsegayie/nunersupportbot/internal/event"
)

var testAdmins = map[int64]struct{}{100: {}}

func plainMessage(chatID int64, chatType, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{UserName: "someone", FirstName: "Some", LastName: "One"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: chatType},
		Text:      text,
	}}
}

func commandMessage(chatID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{UserName: "someone"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func TestClassifyUserMessage(t *testing.T) {
	ev, ok := Classify(plainMessage(555, "private", "hello"), testAdmins)
	require.True(t, ok)
	require.Equal(t, event.UserMessage, ev.Kind)
	require.Equal(t, event.ChatPrivate, ev.Chat)
	require.Equal(t, int64(555), ev.Sender)
	require.Equal(t, "hello", ev.Text)
	require.Equal(t, event.CmdNone, ev.Command)
	require.False(t, ev.IsReply)
	require.Equal(t, "Some One @someone", ev.From.Pretty())
}

func TestClassifyAdminMessage(t *testing.T) {
	ev, ok := Classify(plainMessage(100, "private", "hi"), testAdmins)
	require.True(t, ok)
	require.Equal(t, event.AdminMessage, ev.Kind)
}

func TestClassifyGroupChat(t *testing.T) {
	ev, ok := Classify(plainMessage(555, "group", "hello"), testAdmins)
	require.True(t, ok)
	require.Equal(t, event.ChatOther, ev.Chat)
}

func TestClassifyReply(t *testing.T) {
	upd := plainMessage(100, "private", "answer")
	upd.Message.ReplyToMessage = &tgbotapi.Message{MessageID: 77}

	ev, ok := Classify(upd, testAdmins)
	require.True(t, ok)
	require.True(t, ev.IsReply)
	require.Equal(t, int64(77), ev.RepliedTo)
}

func TestClassifyCommands(t *testing.T) {
	tests := []struct {
		text     string
		wantCmd  event.Command
		wantArgs []string
	}{
		{"/start", event.CmdStart, nil},
		{"/help", event.CmdHelp, nil},
		{"/whoami", event.CmdWhoami, nil},
		{"/debug", event.CmdDebug, nil},
		{"/close", event.CmdClose, nil},
		{"/close_ticket ABCD1234", event.CmdCloseTicket, []string{"ABCD1234"}},
		{"/reply ABCD1234 hello there", event.CmdReply, []string{"ABCD1234", "hello", "there"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ev, ok := Classify(commandMessage(555, tt.text), testAdmins)
			require.True(t, ok)
			require.Equal(t, tt.wantCmd, ev.Command)
			require.Equal(t, tt.wantArgs, ev.Args)
		})
	}
}

func TestClassifyUnknownCommandDropped(t *testing.T) {
	_, ok := Classify(commandMessage(555, "/banana"), testAdmins)
	require.False(t, ok)
}

func TestClassifyNonMessageUpdateDropped(t *testing.T) {
	_, ok := Classify(tgbotapi.Update{}, testAdmins)
	require.False(t, ok)
}

func TestClassifyCaptionFallback(t *testing.T) {
	upd := plainMessage(555, "private", "")
	upd.Message.Caption = "photo caption"

	ev, ok := Classify(upd, testAdmins)
	require.True(t, ok)
	require.Equal(t, "photo caption", ev.Text)
}
