package bridge

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matheus3301/wppmcp/internal/validate"
)

// Allowed values for enumerated action arguments.
var (
	PresenceStates     = []string{"available", "unavailable"}
	TypingStates       = []string{"typing", "paused", "recording"}
	DisappearingTimers = []string{"off", "24h", "7d", "90d"}
	MuteDurations      = []string{"forever", "15m", "1h", "8h", "1w"}
)

const (
	MinPollOptions  = 2
	MaxPollOptions  = 12
	MaxHistoryCount = 50
)

type sendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	MediaPath string `json:"media_path,omitempty"`
}

// SendMessage sends a text message to a phone number or JID.
func (c *Client) SendMessage(ctx context.Context, recipient, message string) (Reply, error) {
	if err := validate.First(
		validate.Required("recipient", recipient),
		validate.Required("message", message),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/send",
		body: sendRequest{Recipient: recipient, Message: message}})
}

func checkMediaFile(path string) error {
	if err := validate.Required("media_path", path); err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return &validate.Error{Field: "media_path", Value: path, Reason: "media file not found"}
	}
	return nil
}

// SendFile sends a local file as an image, video, document or raw audio
// attachment. The bridge reads the file from media_path.
func (c *Client) SendFile(ctx context.Context, recipient, mediaPath string) (Reply, error) {
	if err := validate.First(
		validate.Required("recipient", recipient),
		checkMediaFile(mediaPath),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/send", file: true,
		body: sendRequest{Recipient: recipient, MediaPath: mediaPath}})
}

// SendAudioMessage sends an Opus file as a voice message. Other formats are
// rejected since transcoding is not done here.
func (c *Client) SendAudioMessage(ctx context.Context, recipient, mediaPath string) (Reply, error) {
	if err := validate.First(
		validate.Required("recipient", recipient),
		checkMediaFile(mediaPath),
	); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(mediaPath)) {
	case ".ogg", ".opus":
	default:
		return nil, &validate.Error{Field: "media_path", Value: mediaPath,
			Reason: "voice messages must be .ogg or .opus; use send_file for other audio"}
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/send", file: true,
		body: sendRequest{Recipient: recipient, MediaPath: mediaPath}})
}

// DownloadMedia asks the bridge to download a message's attachment. The
// reply carries the local file path.
func (c *Client) DownloadMedia(ctx context.Context, messageID, chatJID string) (Reply, error) {
	if err := validate.First(
		validate.Required("message_id", messageID),
		validate.Required("chat_jid", chatJID),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/download", file: true,
		body: map[string]string{"message_id": messageID, "chat_jid": chatJID}})
}

// SendReaction reacts to a message. An empty emoji removes the reaction.
func (c *Client) SendReaction(ctx context.Context, chatJID, messageID, emoji string) (Reply, error) {
	if err := validate.First(
		validate.Required("chat_jid", chatJID),
		validate.Required("message_id", messageID),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/reaction",
		body: map[string]string{"chat_jid": chatJID, "message_id": messageID, "emoji": emoji}})
}

// EditMessage replaces the text of a message sent by this account.
func (c *Client) EditMessage(ctx context.Context, chatJID, messageID, newContent string) (Reply, error) {
	if err := validate.First(
		validate.Required("chat_jid", chatJID),
		validate.Required("message_id", messageID),
		validate.Required("new_content", newContent),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/edit",
		body: map[string]string{"chat_jid": chatJID, "message_id": messageID, "new_content": newContent}})
}

type deleteRequest struct {
	ChatJID   string `json:"chat_jid"`
	MessageID string `json:"message_id"`
	SenderJID string `json:"sender_jid,omitempty"`
}

// DeleteMessage revokes a message for everyone. senderJID is needed when a
// group admin deletes someone else's message.
func (c *Client) DeleteMessage(ctx context.Context, chatJID, messageID, senderJID string) (Reply, error) {
	if err := validate.First(
		validate.Required("chat_jid", chatJID),
		validate.Required("message_id", messageID),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/delete",
		body: deleteRequest{ChatJID: chatJID, MessageID: messageID, SenderJID: senderJID}})
}

type readRequest struct {
	ChatJID    string   `json:"chat_jid"`
	MessageIDs []string `json:"message_ids"`
	SenderJID  string   `json:"sender_jid,omitempty"`
}

// MarkRead sends read receipts. senderJID is required by WhatsApp for
// group chats.
func (c *Client) MarkRead(ctx context.Context, chatJID string, messageIDs []string, senderJID string) (Reply, error) {
	if err := validate.Required("chat_jid", chatJID); err != nil {
		return nil, err
	}
	if len(messageIDs) == 0 {
		return nil, &validate.Error{Field: "message_ids", Reason: "must contain at least one id"}
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/read",
		body: readRequest{ChatJID: chatJID, MessageIDs: messageIDs, SenderJID: senderJID}})
}

// GetGroupInfo returns group metadata and participants.
func (c *Client) GetGroupInfo(ctx context.Context, groupJID string) (Reply, error) {
	if err := validate.Required("group_jid", groupJID); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodGet, route: "/group/{jid}",
		path: "/group/" + url.PathEscape(groupJID)})
}

func requireParticipants(participants []string) error {
	if len(participants) == 0 {
		return &validate.Error{Field: "participants", Reason: "must contain at least one participant"}
	}
	for _, p := range participants {
		if err := validate.Required("participants", p); err != nil {
			return err
		}
	}
	return nil
}

type groupMembersRequest struct {
	GroupJID     string   `json:"group_jid"`
	Participants []string `json:"participants"`
}

// CreateGroup creates a group with the given participants.
func (c *Client) CreateGroup(ctx context.Context, name string, participants []string) (Reply, error) {
	if err := validate.First(
		validate.Required("name", name),
		requireParticipants(participants),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/group/create",
		body: map[string]any{"name": name, "participants": participants}})
}

// AddGroupMembers adds participants to a group.
func (c *Client) AddGroupMembers(ctx context.Context, groupJID string, participants []string) (Reply, error) {
	return c.groupMembers(ctx, "/group/add", groupJID, participants)
}

// RemoveGroupMembers removes participants from a group.
func (c *Client) RemoveGroupMembers(ctx context.Context, groupJID string, participants []string) (Reply, error) {
	return c.groupMembers(ctx, "/group/remove", groupJID, participants)
}

func (c *Client) groupMembers(ctx context.Context, route, groupJID string, participants []string) (Reply, error) {
	if err := validate.First(
		validate.Required("group_jid", groupJID),
		requireParticipants(participants),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: route,
		body: groupMembersRequest{GroupJID: groupJID, Participants: participants}})
}

// PromoteToAdmin makes a participant a group admin.
func (c *Client) PromoteToAdmin(ctx context.Context, groupJID, participant string) (Reply, error) {
	return c.groupParticipant(ctx, "/group/promote", groupJID, participant)
}

// DemoteAdmin removes admin rights from a participant.
func (c *Client) DemoteAdmin(ctx context.Context, groupJID, participant string) (Reply, error) {
	return c.groupParticipant(ctx, "/group/demote", groupJID, participant)
}

func (c *Client) groupParticipant(ctx context.Context, route, groupJID, participant string) (Reply, error) {
	if err := validate.First(
		validate.Required("group_jid", groupJID),
		validate.Required("participant", participant),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: route,
		body: map[string]string{"group_jid": groupJID, "participant": participant}})
}

// LeaveGroup leaves a group.
func (c *Client) LeaveGroup(ctx context.Context, groupJID string) (Reply, error) {
	if err := validate.Required("group_jid", groupJID); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/group/leave",
		body: map[string]string{"group_jid": groupJID}})
}

type updateGroupRequest struct {
	GroupJID string `json:"group_jid"`
	Name     string `json:"name,omitempty"`
	Topic    string `json:"topic,omitempty"`
}

// UpdateGroup changes a group's name, topic or both.
func (c *Client) UpdateGroup(ctx context.Context, groupJID, name, topic string) (Reply, error) {
	if err := validate.Required("group_jid", groupJID); err != nil {
		return nil, err
	}
	if name == "" && topic == "" {
		return nil, &validate.Error{Field: "name", Reason: "name or topic must be given"}
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/group/update",
		body: updateGroupRequest{GroupJID: groupJID, Name: name, Topic: topic}})
}

type pollRequest struct {
	ChatJID     string   `json:"chat_jid"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	MultiSelect bool     `json:"multi_select"`
}

// CreatePoll sends a poll with 2 to 12 options.
func (c *Client) CreatePoll(ctx context.Context, chatJID, question string, options []string, multiSelect bool) (Reply, error) {
	if err := validate.First(
		validate.Required("chat_jid", chatJID),
		validate.Required("question", question),
		validate.Range("options", len(options), MinPollOptions, MaxPollOptions),
	); err != nil {
		return nil, err
	}
	for _, o := range options {
		if err := validate.Required("options", o); err != nil {
			return nil, err
		}
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/poll/create",
		body: pollRequest{ChatJID: chatJID, Question: question, Options: options, MultiSelect: multiSelect}})
}

type historyRequest struct {
	ChatJID            string `json:"chat_jid"`
	OldestMsgID        string `json:"oldest_msg_id"`
	OldestMsgFromMe    bool   `json:"oldest_msg_from_me"`
	OldestMsgTimestamp int64  `json:"oldest_msg_timestamp"`
	Count              int    `json:"count"`
}

// RequestHistory asks the phone to sync up to count messages older than the
// given anchor. The timestamp is in Unix milliseconds.
func (c *Client) RequestHistory(ctx context.Context, chatJID, oldestMsgID string, oldestFromMe bool, oldestTimestamp int64, count int) (Reply, error) {
	if err := validate.First(
		validate.Required("chat_jid", chatJID),
		validate.Required("oldest_msg_id", oldestMsgID),
		validate.Range("count", count, 1, MaxHistoryCount),
	); err != nil {
		return nil, err
	}
	if oldestTimestamp <= 0 {
		return nil, &validate.Error{Field: "oldest_msg_timestamp", Value: oldestTimestamp, Reason: "must be a positive Unix time in milliseconds"}
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/history",
		body: historyRequest{
			ChatJID:            chatJID,
			OldestMsgID:        oldestMsgID,
			OldestMsgFromMe:    oldestFromMe,
			OldestMsgTimestamp: oldestTimestamp,
			Count:              count,
		}})
}

// SetPresence sets this account's own presence.
func (c *Client) SetPresence(ctx context.Context, presence string) (Reply, error) {
	if err := validate.OneOf("presence", presence, PresenceStates...); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/presence",
		body: map[string]string{"presence": presence}})
}

// SubscribePresence subscribes to a contact's presence updates.
func (c *Client) SubscribePresence(ctx context.Context, jid string) (Reply, error) {
	return c.jidAction(ctx, "/presence/subscribe", jid)
}

// GetProfilePicture returns the profile picture URL of a user or group.
func (c *Client) GetProfilePicture(ctx context.Context, jid string, preview bool) (Reply, error) {
	if err := validate.Required("jid", jid); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("jid", jid)
	q.Set("preview", strconv.FormatBool(preview))
	return c.do(ctx, call{method: http.MethodGet, route: "/profile-picture", query: q})
}

// GetBlocklist returns the blocked users.
func (c *Client) GetBlocklist(ctx context.Context) (Reply, error) {
	return c.do(ctx, call{method: http.MethodGet, route: "/blocklist"})
}

// BlockUser blocks a user.
func (c *Client) BlockUser(ctx context.Context, jid string) (Reply, error) {
	return c.updateBlocklist(ctx, jid, "block")
}

// UnblockUser unblocks a user.
func (c *Client) UnblockUser(ctx context.Context, jid string) (Reply, error) {
	return c.updateBlocklist(ctx, jid, "unblock")
}

func (c *Client) updateBlocklist(ctx context.Context, jid, action string) (Reply, error) {
	if err := validate.Required("jid", jid); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/blocklist",
		body: map[string]string{"jid": jid, "action": action}})
}

// FollowNewsletter follows a channel.
func (c *Client) FollowNewsletter(ctx context.Context, jid string) (Reply, error) {
	return c.jidAction(ctx, "/newsletter/follow", jid)
}

// UnfollowNewsletter unfollows a channel.
func (c *Client) UnfollowNewsletter(ctx context.Context, jid string) (Reply, error) {
	return c.jidAction(ctx, "/newsletter/unfollow", jid)
}

func (c *Client) jidAction(ctx context.Context, route, jid string) (Reply, error) {
	if err := validate.Required("jid", jid); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: route,
		body: map[string]string{"jid": jid}})
}

type newsletterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateNewsletter creates a channel owned by this account.
func (c *Client) CreateNewsletter(ctx context.Context, name, description string) (Reply, error) {
	if err := validate.Required("name", name); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/newsletter/create",
		body: newsletterRequest{Name: name, Description: description}})
}

// SendTyping shows or clears a typing or recording indicator in a chat.
func (c *Client) SendTyping(ctx context.Context, chatJID, state string) (Reply, error) {
	if err := validate.First(
		validate.Required("chat_jid", chatJID),
		validate.OneOf("state", state, TypingStates...),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/typing",
		body: map[string]string{"chat_jid": chatJID, "state": state}})
}

// SetAbout sets the profile "about" text.
func (c *Client) SetAbout(ctx context.Context, text string) (Reply, error) {
	return c.do(ctx, call{method: http.MethodPost, route: "/set-about",
		body: map[string]string{"text": text}})
}

// SetDisappearingTimer sets the disappearing-messages timer of a chat.
func (c *Client) SetDisappearingTimer(ctx context.Context, chatJID, duration string) (Reply, error) {
	if err := validate.First(
		validate.Required("chat_jid", chatJID),
		validate.OneOf("duration", duration, DisappearingTimers...),
	); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/disappearing",
		body: map[string]string{"chat_jid": chatJID, "duration": duration}})
}

// GetPrivacySettings returns the account's privacy settings.
func (c *Client) GetPrivacySettings(ctx context.Context) (Reply, error) {
	return c.do(ctx, call{method: http.MethodGet, route: "/privacy"})
}

// PinChat pins or unpins a chat.
func (c *Client) PinChat(ctx context.Context, chatJID string, pin bool) (Reply, error) {
	if err := validate.Required("chat_jid", chatJID); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/pin",
		body: map[string]any{"chat_jid": chatJID, "pin": pin}})
}

// MuteChat mutes a chat for duration, or unmutes it.
func (c *Client) MuteChat(ctx context.Context, chatJID string, mute bool, duration string) (Reply, error) {
	if err := validate.Required("chat_jid", chatJID); err != nil {
		return nil, err
	}
	if duration == "" {
		duration = "forever"
	}
	if err := validate.OneOf("duration", duration, MuteDurations...); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/mute",
		body: map[string]any{"chat_jid": chatJID, "mute": mute, "duration": duration}})
}

// ArchiveChat archives or unarchives a chat.
func (c *Client) ArchiveChat(ctx context.Context, chatJID string, archive bool) (Reply, error) {
	if err := validate.Required("chat_jid", chatJID); err != nil {
		return nil, err
	}
	return c.do(ctx, call{method: http.MethodPost, route: "/archive",
		body: map[string]any{"chat_jid": chatJID, "archive": archive}})
}

// Health reports whether the bridge process is up.
func (c *Client) Health(ctx context.Context) (Reply, error) {
	return c.do(ctx, call{method: http.MethodGet, route: "/health"})
}

// ConnectionStatus reports the bridge's WhatsApp connection state.
func (c *Client) ConnectionStatus(ctx context.Context) (Reply, error) {
	return c.do(ctx, call{method: http.MethodGet, route: "/connection"})
}

// SyncStatus reports history sync progress.
func (c *Client) SyncStatus(ctx context.Context) (Reply, error) {
	return c.do(ctx, call{method: http.MethodGet, route: "/sync-status"})
}
