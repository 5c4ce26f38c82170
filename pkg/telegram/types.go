package telegram

import "encoding/json"

// User is a Bot API user or bot account.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

type MessageID struct {
	MessageID int64 `json:"message_id"`
}

// ChatMember status values.
const (
	MemberCreator       = "creator"
	MemberAdministrator = "administrator"
	MemberMember        = "member"
	MemberRestricted    = "restricted"
	MemberLeft          = "left"
	MemberKicked        = "kicked"
)

type ChatMember struct {
	Status string `json:"status"`
	User   User   `json:"user"`
}

// IsMember reports whether the status counts as being in the chat.
func (m ChatMember) IsMember() bool {
	switch m.Status {
	case MemberCreator, MemberAdministrator, MemberMember, MemberRestricted:
		return true
	}
	return false
}

type CallbackQuery struct {
	ID   string   `json:"id"`
	From User     `json:"from"`
	Data string   `json:"data,omitempty"`
	Msg  *Message `json:"message,omitempty"`
}

// Update is the envelope delivered to webhooks. Only the fields the bot
// routes on are decoded.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	EditedMessage *Message       `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Sender returns the user who caused the update, if any.
func (u Update) Sender() (User, bool) {
	switch {
	case u.Message != nil && u.Message.From != nil:
		return *u.Message.From, true
	case u.EditedMessage != nil && u.EditedMessage.From != nil:
		return *u.EditedMessage.From, true
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From, true
	}
	return User{}, false
}

// WebhookConfig is the payload of setWebhook.
type WebhookConfig struct {
	URL                string   `json:"url"`
	SecretToken        string   `json:"secret_token,omitempty"`
	DropPendingUpdates bool     `json:"drop_pending_updates,omitempty"`
	AllowedUpdates     []string `json:"allowed_updates,omitempty"`
	MaxConnections     int      `json:"max_connections,omitempty"`
}

type responseParameters struct {
	RetryAfter      int   `json:"retry_after,omitempty"`
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
}

type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage             `json:"result,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}
