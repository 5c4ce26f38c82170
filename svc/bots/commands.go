package bots

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/dmitrymomot/tenantbot/pkg/updates"
)

const helpText = `<b>Bot hosting</b>

/addbot &lt;token&gt; connect a bot created with @BotFather
/mybots list your bots
/delbot &lt;tenant id&gt; disconnect a bot`

// RegisterCommands installs the owner facing chat commands of the
// management bot on d.
func RegisterCommands(d *updates.Dispatcher, svc *Service) {
	c := commands{svc: svc}
	d.Handle("/start", c.help)
	d.Handle("/help", c.help)
	d.Handle("/addbot", c.add)
	d.Handle("/mybots", c.list)
	d.Handle("/delbot", c.remove)
}

type commands struct {
	svc *Service
}

func (c commands) help(ctx context.Context, req *updates.Request) error {
	return req.Reply(ctx, helpText)
}

func (c commands) add(ctx context.Context, req *updates.Request) error {
	if req.Sender == nil {
		return nil
	}
	if req.Args == "" {
		return req.Reply(ctx, "Send the token in the same message: /addbot &lt;token&gt;")
	}

	info, err := c.svc.Onboard(ctx, req.Sender.ID, req.Args)
	if err != nil {
		return req.Reply(ctx, replyFor(err))
	}
	return req.Reply(ctx, fmt.Sprintf("@%s is connected.\nTenant id: <code>%s</code>",
		html.EscapeString(info.Username), info.TenantID))
}

func (c commands) list(ctx context.Context, req *updates.Request) error {
	if req.Sender == nil {
		return nil
	}
	infos, err := c.svc.List(ctx, req.Sender.ID)
	if err != nil {
		return req.Reply(ctx, replyFor(err))
	}
	if len(infos) == 0 {
		return req.Reply(ctx, "You have no bots yet. Use /addbot to connect one.")
	}

	var b strings.Builder
	b.WriteString("<b>Your bots</b>\n")
	for _, info := range infos {
		name := info.Username
		if name == "" {
			name = "unknown"
		}
		fmt.Fprintf(&b, "\n@%s <code>%s</code>", html.EscapeString(name), info.TenantID)
		if !info.Healthy {
			fmt.Fprintf(&b, " (%s)", html.EscapeString(info.Problem))
		}
	}
	return req.Reply(ctx, b.String())
}

func (c commands) remove(ctx context.Context, req *updates.Request) error {
	if req.Sender == nil {
		return nil
	}
	if req.Args == "" {
		return req.Reply(ctx, "Usage: /delbot &lt;tenant id&gt;")
	}
	if err := c.svc.RemoveOwned(ctx, req.Sender.ID, req.Args); err != nil {
		return req.Reply(ctx, replyFor(err))
	}
	return req.Reply(ctx, "Bot disconnected.")
}

// replyFor turns a service error into a message for the owner.
func replyFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return "Telegram rejected this token. Copy it again from @BotFather."
	case errors.Is(err, ErrAlreadyExists):
		return "This bot is already connected."
	case errors.Is(err, ErrNotFound):
		return "No such bot among yours."
	case errors.Is(err, ErrBotAPIUnavailable), errors.Is(err, ErrWebhookSetup):
		return "Telegram is not responding. Try again in a minute."
	}
	return "Something went wrong. Try again later."
}
