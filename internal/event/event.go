package event

import "strings"

// Kind classifies who sent an inbound message. Classification happens at the
// transport boundary against the configured admin chat ids.
type Kind int

const (
	UserMessage Kind = iota
	AdminMessage
)

// ChatKind distinguishes private chats from groups/channels. Ticket creation
// and closure only happen in private chats.
type ChatKind int

const (
	ChatPrivate ChatKind = iota
	ChatOther
)

// Command is the bot command carried by an inbound message, if any.
type Command int

const (
	CmdNone Command = iota
	CmdStart
	CmdHelp
	CmdWhoami
	CmdDebug
	CmdClose       // user closes own ticket
	CmdCloseTicket // admin: close_ticket <id>
	CmdReply       // admin: reply <id> <text>
)

// Profile carries the sender's display identity for admin-facing headers.
type Profile struct {
	Username  string
	FirstName string
	LastName  string
}

// Pretty renders the profile the way admins see it in ticket headers.
func (p Profile) Pretty() string {
	username := "(no username)"
	if p.Username != "" {
		username = "@" + p.Username
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName+" "+p.LastName) + " " + username)
}

// Event is the tagged inbound-event shape the router consumes. Exactly one of
// the command/text interpretations applies: Command != CmdNone means the text
// was a recognized command and Args holds its arguments.
type Event struct {
	Kind      Kind
	Sender    int64 // chat id; equals user id for private chats
	Chat      ChatKind
	Text      string
	IsReply   bool
	RepliedTo int64 // message id being replied to, when IsReply
	Command   Command
	Args      []string
	From      Profile
}
