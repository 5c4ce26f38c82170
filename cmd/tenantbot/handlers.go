package main

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/dmitrymomot/tenantbot/pkg/updates"
	"github.com/dmitrymomot/tenantbot/svc/bots"
)

// sessionCounter reports how many tenant sessions are open.
type sessionCounter interface {
	Sessions() int
}

// tenantDispatcher handles updates of tenant bots.
func tenantDispatcher(admins updates.AdminSet, log *slog.Logger) *updates.Dispatcher {
	d := updates.NewDispatcher(updates.WithAdmins(admins), updates.WithLogger(log))
	d.Handle("/start", func(ctx context.Context, req *updates.Request) error {
		name := "there"
		if req.Sender != nil && req.Sender.FirstName != "" {
			name = req.Sender.FirstName
		}
		return req.Reply(ctx, fmt.Sprintf("Hello, %s!", html.EscapeString(name)))
	})
	d.HandleAdmin("/admin", func(ctx context.Context, req *updates.Request) error {
		return req.Reply(ctx, fmt.Sprintf("Tenant <code>%s</code>\nCredential version %d",
			req.Session.TenantID, req.Session.Version))
	})
	return d
}

// mainDispatcher handles updates of the management bot.
func mainDispatcher(svc *bots.Service, sessions sessionCounter, admins updates.AdminSet, log *slog.Logger) *updates.Dispatcher {
	d := updates.NewDispatcher(updates.WithAdmins(admins), updates.WithLogger(log))
	bots.RegisterCommands(d, svc)
	d.HandleAdmin("/stats", func(ctx context.Context, req *updates.Request) error {
		return req.Reply(ctx, fmt.Sprintf("Open tenant sessions: %d", sessions.Sessions()))
	})
	return d
}
