package updates

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/tenantbot/pkg/gateway"
	"github.com/dmitrymomot/tenantbot/pkg/logger"
	"github.com/dmitrymomot/tenantbot/pkg/scope"
	"github.com/dmitrymomot/tenantbot/pkg/telegram"
)

// Request is one update together with the session it arrived on.
type Request struct {
	Session *gateway.Session
	Update  telegram.Update
	Sender  *telegram.User
	Admin   bool
	// Command is the lower-cased command name without the slash, and Args
	// the text after it.
	Command string
	Args    string
}

// Reply sends text to the chat the update came from.
func (r *Request) Reply(ctx context.Context, text string, opts ...telegram.SendOption) error {
	msg := r.message()
	if msg == nil {
		return ErrNoChat
	}
	_, err := r.Session.Bot.SendMessage(ctx, msg.Chat.ID, text, opts...)
	return err
}

func (r *Request) message() *telegram.Message {
	switch {
	case r.Update.Message != nil:
		return r.Update.Message
	case r.Update.EditedMessage != nil:
		return r.Update.EditedMessage
	case r.Update.CallbackQuery != nil:
		return r.Update.CallbackQuery.Msg
	}
	return nil
}

type HandlerFunc func(ctx context.Context, req *Request) error

type route struct {
	fn        HandlerFunc
	adminOnly bool
}

// Dispatcher routes updates by command.
type Dispatcher struct {
	commands map[string]route
	fallback HandlerFunc
	admins   AdminSet
	log      *slog.Logger
}

type Option func(*Dispatcher)

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = logger.OrDiscard(l) }
}

func WithAdmins(admins AdminSet) Option {
	return func(d *Dispatcher) { d.admins = admins }
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		commands: make(map[string]route),
		admins:   NewAdminSet(),
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle registers fn for "/command".
func (d *Dispatcher) Handle(command string, fn HandlerFunc) {
	d.commands[normalize(command)] = route{fn: fn}
}

// HandleAdmin registers fn for "/command" sent by an administrator. Other
// senders get the fallback.
func (d *Dispatcher) HandleAdmin(command string, fn HandlerFunc) {
	d.commands[normalize(command)] = route{fn: fn, adminOnly: true}
}

// Fallback handles every update no command matched.
func (d *Dispatcher) Fallback(fn HandlerFunc) {
	d.fallback = fn
}

// Dispatch decodes body and runs the matching handler.
func (d *Dispatcher) Dispatch(ctx context.Context, s *gateway.Session, body []byte) error {
	var u telegram.Update
	if err := json.Unmarshal(body, &u); err != nil {
		return errors.Join(ErrMalformedUpdate, err)
	}

	req := &Request{Session: s, Update: u}
	if sender, ok := u.Sender(); ok {
		req.Sender = &sender
		req.Admin = d.admins.Contains(sender.ID)
		ctx = scope.WithUserID(ctx, sender.ID)
	}
	if u.Message != nil {
		req.Command, req.Args = parseCommand(u.Message.Text)
	}

	if r, ok := d.commands[req.Command]; ok && req.Command != "" {
		if !r.adminOnly || req.Admin {
			return r.fn(ctx, req)
		}
		d.log.InfoContext(ctx, "admin command refused", slog.String("command", req.Command))
	}
	if d.fallback != nil {
		return d.fallback(ctx, req)
	}
	d.log.DebugContext(ctx, "update not handled", slog.Int64("update_id", u.UpdateID))
	return nil
}

// parseCommand splits "/Start@my_bot payload" into "start" and "payload".
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	head, args, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(args)
}

func normalize(command string) string {
	return strings.ToLower(strings.TrimPrefix(command, "/"))
}
