package router

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Kumatsegayie/nunersupportbot/internal/event"
	"github.com/Kumatsegayie/nunersupportbot/internal/store"
	"github.com/Kumatsegayie/nunersupportbot/internal/transport"
)

// Router applies inbound events to the routing state and issues outbound
// sends. All table mutation plus the persistence commit for one event happens
// under a single lock, so events racing on the same user cannot interleave
// partially. Admin fan-out also runs inside the critical section: every
// correlation entry must be recorded before the lock releases or a reply
// arriving right after could fail to resolve.
type Router struct {
	mu      sync.Mutex
	state   *store.State
	persist store.Persister
	send    transport.Sender
	admins  []int64
	log     zerolog.Logger
}

func New(log zerolog.Logger, state *store.State, persist store.Persister, send transport.Sender, admins []int64) *Router {
	return &Router{
		state:   state,
		persist: persist,
		send:    send,
		admins:  admins,
		log:     log,
	}
}

// HandleEvent processes one inbound event. It never returns an error and
// never panics outward: every per-event fault becomes a reply to the sender
// plus a log entry.
func (r *Router) HandleEvent(ctx context.Context, ev event.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Int64("sender", ev.Sender).Msg("event handler panic")
			r.reply(ctx, ev.Sender, "Something went wrong. Please try again.")
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Command {
	case event.CmdStart:
		r.handleStart(ctx, ev)
	case event.CmdHelp:
		r.handleHelp(ctx, ev)
	case event.CmdWhoami:
		r.handleWhoami(ctx, ev)
	case event.CmdDebug:
		r.handleDebug(ctx, ev)
	case event.CmdClose:
		r.handleUserClose(ctx, ev)
	case event.CmdCloseTicket:
		r.handleAdminClose(ctx, ev)
	case event.CmdReply:
		r.handleAdminDirectReply(ctx, ev)
	default:
		r.handleMessage(ctx, ev)
	}
}

// -----------------------------------------------------------------------------
// Plain messages: ticket creation/append (users) and reply correlation (admins)
// -----------------------------------------------------------------------------

func (r *Router) handleMessage(ctx context.Context, ev event.Event) {
	if ev.Kind == event.AdminMessage {
		if ev.IsReply {
			r.handleAdminReply(ctx, ev)
			return
		}
		if ev.Chat == event.ChatPrivate {
			r.reply(ctx, ev.Sender,
				"👋 You're an admin!\n"+
					"If you want to test user functionality, please use a different account.\n"+
					"To reply to users, reply to their messages in the admin chat.")
		}
		return
	}

	if ev.Chat != event.ChatPrivate {
		return
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		r.reply(ctx, ev.Sender, "Please send a text question.")
		return
	}

	userID := ev.Sender
	ticketID, created := r.state.CreateTicket(userID)
	if created {
		r.reply(ctx, userID, fmt.Sprintf(
			"✅ Your ticket #%s has been created. Admin will reply here.\nUse /close to close this ticket.", ticketID))
	} else {
		r.reply(ctx, userID, fmt.Sprintf("ℹ️ Your message has been added to ticket #%s.", ticketID))
	}

	if len(r.admins) == 0 {
		r.reply(ctx, userID, "(Admin chat not configured. Set ADMIN_CHAT_ID in .env)")
		r.commit(ctx)
		return
	}

	header := fmt.Sprintf(
		"🆕 Ticket #%s\nFrom: %s (ID: %d)\n\n%s\n\n↩️ Reply by replying to this message.",
		ticketID, ev.From.Pretty(), userID, text)
	delivered, failed := r.broadcast(ctx, ticketID, userID, header)
	if delivered == 0 && failed > 0 {
		r.reply(ctx, userID, "Error sending message to admin. Please try again later.")
	}
	r.commit(ctx)
}

// handleAdminReply forwards a reply-to-notification to the originating user
// and echoes it to every admin so any admin can keep replying to the thread.
func (r *Router) handleAdminReply(ctx context.Context, ev event.Event) {
	corr, ok := r.state.Resolve(ev.RepliedTo)
	if !ok {
		r.reply(ctx, ev.Sender, "This message is not associated with any ticket.")
		return
	}

	content := strings.TrimSpace(ev.Text)
	if content == "" {
		content = "(Sent without text)"
	}

	if _, err := r.send.Send(ctx, corr.UserID, fmt.Sprintf("💬 Support (#%s):\n%s", corr.TicketID, content)); err != nil {
		r.log.Warn().Err(err).Str("ticket", corr.TicketID).Int64("user", corr.UserID).Msg("reply forward failed")
		r.reply(ctx, ev.Sender, "Error sending message to user. Please try again later.")
		return
	}

	echo := fmt.Sprintf("💬 You replied to #%s:\n%s", corr.TicketID, content)
	r.broadcast(ctx, corr.TicketID, corr.UserID, echo)
	r.commit(ctx)
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func (r *Router) handleUserClose(ctx context.Context, ev event.Event) {
	if ev.Chat != event.ChatPrivate {
		return
	}
	userID := ev.Sender
	ticketID, ok := r.state.OpenTicket(userID)
	if !ok {
		r.reply(ctx, userID, "You don't have any open tickets.")
		return
	}
	r.state.PurgeTicket(ticketID)
	r.state.CloseByUser(userID)
	r.commit(ctx)
	r.reply(ctx, userID, fmt.Sprintf("✅ Ticket #%s has been closed.", ticketID))
}

func (r *Router) handleAdminClose(ctx context.Context, ev event.Event) {
	if ev.Kind != event.AdminMessage {
		r.reply(ctx, ev.Sender, "❌ Admin only command.")
		return
	}
	if len(ev.Args) == 0 {
		r.reply(ctx, ev.Sender, "Usage: /close_ticket <TICKET_ID>")
		return
	}

	ticketID := store.NormalizeTicketID(ev.Args[0])
	userID, ok := r.state.CloseByTicket(ticketID)
	if !ok {
		r.reply(ctx, ev.Sender, "Ticket not found.")
		return
	}
	r.state.PurgeTicket(ticketID)
	r.commit(ctx)
	r.reply(ctx, ev.Sender, fmt.Sprintf("✅ Ticket #%s has been closed.", ticketID))

	// The closure already succeeded; a failed user notification is logged
	// and swallowed.
	if _, err := r.send.Send(ctx, userID, fmt.Sprintf("✅ Your ticket #%s has been closed by support.", ticketID)); err != nil {
		r.log.Warn().Err(err).Str("ticket", ticketID).Int64("user", userID).Msg("close notification failed")
	}
}

// handleAdminDirectReply is /reply <id> <text>: same forward+echo as a
// correlated reply, but addressed by ticket id.
func (r *Router) handleAdminDirectReply(ctx context.Context, ev event.Event) {
	if ev.Kind != event.AdminMessage {
		r.reply(ctx, ev.Sender, "❌ Admin only command.")
		return
	}
	if len(ev.Args) < 2 {
		r.reply(ctx, ev.Sender, "Usage: /reply <TICKET_ID> <message>")
		return
	}

	ticketID := store.NormalizeTicketID(ev.Args[0])
	content := strings.Join(ev.Args[1:], " ")

	userID, ok := r.state.FindUserByTicket(ticketID)
	if !ok {
		r.reply(ctx, ev.Sender, "Ticket not found.")
		return
	}

	if _, err := r.send.Send(ctx, userID, fmt.Sprintf("💬 Support (#%s):\n%s", ticketID, content)); err != nil {
		r.log.Warn().Err(err).Str("ticket", ticketID).Int64("user", userID).Msg("direct reply failed")
		r.reply(ctx, ev.Sender, "Error sending message to user. Please try again later.")
		return
	}
	r.reply(ctx, ev.Sender, "✅ Sent to user.")

	r.broadcast(ctx, ticketID, userID, fmt.Sprintf("💬 You replied to #%s:\n%s", ticketID, content))
	r.commit(ctx)
}

func (r *Router) handleStart(ctx context.Context, ev event.Event) {
	if ev.Kind == event.AdminMessage {
		r.reply(ctx, ev.Sender,
			"👋 Welcome Admin!\n"+
				"You will receive user questions here.\n"+
				"Reply to any message to respond to the user.\n\n"+
				"Use /debug to check your admin status.")
		return
	}
	r.reply(ctx, ev.Sender,
		"👋 Welcome to Nuner Support!\n"+
			"Send your question and our team will reply here.\n"+
			"📝 Tip: Send one question per message.\n\n"+
			"Use /close to close your current ticket.")
}

func (r *Router) handleHelp(ctx context.Context, ev event.Event) {
	if ev.Kind == event.AdminMessage {
		r.reply(ctx, ev.Sender,
			"ℹ️ Admin Help:\n"+
				"• Reply to any user message to respond\n"+
				"• /reply <TICKET_ID> <message> - reply to a specific ticket\n"+
				"• /close_ticket <TICKET_ID> - close a ticket\n"+
				"• /whoami - show your chat ID\n"+
				"• /debug - show debug information")
		return
	}
	r.reply(ctx, ev.Sender,
		"ℹ️ User Help:\n"+
			"• Send a message to create a support ticket\n"+
			"• /close - close your current ticket\n"+
			"• /whoami - show your chat ID")
}

func (r *Router) handleWhoami(ctx context.Context, ev event.Event) {
	status := "❌ No"
	if ev.Kind == event.AdminMessage {
		status = "✅ Yes"
	}
	r.reply(ctx, ev.Sender, fmt.Sprintf("Your Chat ID: %d\nAdmin Status: %s", ev.Sender, status))
}

func (r *Router) handleDebug(ctx context.Context, ev event.Event) {
	username := "N/A"
	if ev.From.Username != "" {
		username = ev.From.Username
	}
	r.reply(ctx, ev.Sender, fmt.Sprintf(
		"🛠 DEBUG INFO:\n"+
			"• Your Chat ID: %d\n"+
			"• Username: @%s\n"+
			"• Name: %s %s\n"+
			"• ADMIN_CHAT_IDS: %v\n"+
			"• Is Admin: %t\n"+
			"• Admin IDs Configured: %t",
		ev.Sender, username, ev.From.FirstName, ev.From.LastName,
		r.admins, ev.Kind == event.AdminMessage, len(r.admins) > 0))
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// broadcast fans text out to every configured admin, recording a correlation
// entry per delivered message. Failures are logged per admin and the loop
// keeps going: partial fan-out success is acceptable.
func (r *Router) broadcast(ctx context.Context, ticketID string, userID int64, text string) (delivered, failed int) {
	for _, adminID := range r.admins {
		msgID, err := r.send.Send(ctx, adminID, text)
		if err != nil {
			failed++
			r.log.Warn().Err(err).Int64("admin", adminID).Str("ticket", ticketID).Msg("admin fan-out failed")
			continue
		}
		r.state.Record(msgID, ticketID, userID)
		delivered++
	}
	return delivered, failed
}

// reply is a best-effort send back to the event's sender.
func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if _, err := r.send.Send(ctx, chatID, text); err != nil {
		r.log.Warn().Err(err).Int64("chat", chatID).Msg("reply failed")
	}
}

// commit persists the full snapshot. A failed commit is logged; in-memory
// state stays authoritative until the next successful snapshot.
func (r *Router) commit(ctx context.Context) {
	if err := r.persist.Save(ctx, r.state.Snapshot()); err != nil {
		r.log.Error().Err(err).Msg("state persist failed")
	}
}
