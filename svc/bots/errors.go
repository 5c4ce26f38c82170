package bots

import "errors"

var (
	ErrInvalidToken      = errors.New("bots: invalid bot token")
	ErrAlreadyExists     = errors.New("bots: bot already registered")
	ErrNotFound          = errors.New("bots: bot not found")
	ErrBotAPIUnavailable = errors.New("bots: bot api unavailable")
	ErrStorage           = errors.New("bots: storage unavailable")
	ErrWebhookSetup      = errors.New("bots: webhook setup failed")
	ErrInvalidOwner      = errors.New("bots: invalid owner id")
)
