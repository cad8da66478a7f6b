package tools

import (
	"context"

	"github.com/matheus3301/wppmcp/internal/bridge"
)

type SendMessageArgs struct {
	Recipient string `json:"recipient" jsonschema:"Phone number with country code and no + or symbols, or a JID such as 123456789@s.whatsapp.net or 123456789@g.us"`
	Message   string `json:"message" jsonschema:"Text to send"`
}

type SendFileArgs struct {
	Recipient string `json:"recipient" jsonschema:"Phone number or JID of the recipient"`
	MediaPath string `json:"media_path" jsonschema:"Absolute path of the file to send"`
}

type DownloadMediaArgs struct {
	MessageID string `json:"message_id" jsonschema:"ID of the message with the attachment"`
	ChatJID   string `json:"chat_jid" jsonschema:"JID of the chat of the message"`
}

type ReactionArgs struct {
	ChatJID   string `json:"chat_jid" jsonschema:"JID of the chat"`
	MessageID string `json:"message_id" jsonschema:"ID of the message to react to"`
	Emoji     string `json:"emoji" jsonschema:"Reaction emoji, or empty to remove the reaction"`
}

type EditMessageArgs struct {
	ChatJID    string `json:"chat_jid" jsonschema:"JID of the chat"`
	MessageID  string `json:"message_id" jsonschema:"ID of a message you sent"`
	NewContent string `json:"new_content" jsonschema:"Replacement text"`
}

type DeleteMessageArgs struct {
	ChatJID   string `json:"chat_jid" jsonschema:"JID of the chat"`
	MessageID string `json:"message_id" jsonschema:"ID of the message to delete for everyone"`
	SenderJID string `json:"sender_jid,omitempty" jsonschema:"Sender of the message, when a group admin deletes someone else's message"`
}

type MarkReadArgs struct {
	ChatJID    string   `json:"chat_jid" jsonschema:"JID of the chat"`
	MessageIDs []string `json:"message_ids" jsonschema:"IDs of the messages to mark as read"`
	SenderJID  string   `json:"sender_jid,omitempty" jsonschema:"Sender of the messages, required in group chats"`
}

type GroupArgs struct {
	GroupJID string `json:"group_jid" jsonschema:"JID of the group, ending in @g.us"`
}

type CreateGroupArgs struct {
	Name         string   `json:"name" jsonschema:"Group name"`
	Participants []string `json:"participants" jsonschema:"Participant JIDs or phone numbers"`
}

type GroupMembersArgs struct {
	GroupJID     string   `json:"group_jid" jsonschema:"JID of the group"`
	Participants []string `json:"participants" jsonschema:"Participant JIDs"`
}

type GroupParticipantArgs struct {
	GroupJID    string `json:"group_jid" jsonschema:"JID of the group"`
	Participant string `json:"participant" jsonschema:"Participant JID"`
}

type UpdateGroupArgs struct {
	GroupJID string `json:"group_jid" jsonschema:"JID of the group"`
	Name     string `json:"name,omitempty" jsonschema:"New group name"`
	Topic    string `json:"topic,omitempty" jsonschema:"New group description"`
}

type CreatePollArgs struct {
	ChatJID     string   `json:"chat_jid" jsonschema:"JID of the chat to send the poll to"`
	Question    string   `json:"question" jsonschema:"Poll question"`
	Options     []string `json:"options" jsonschema:"Between 2 and 12 answer options"`
	MultiSelect bool     `json:"multi_select,omitempty" jsonschema:"Allow more than one answer (default false)"`
}

type RequestHistoryArgs struct {
	ChatJID            string `json:"chat_jid" jsonschema:"JID of the chat"`
	OldestMsgID        string `json:"oldest_msg_id" jsonschema:"ID of the oldest message currently stored for the chat"`
	OldestMsgTimestamp int64  `json:"oldest_msg_timestamp" jsonschema:"Unix time in milliseconds of that message"`
	OldestMsgFromMe    bool   `json:"oldest_msg_from_me,omitempty" jsonschema:"Whether that message was sent by you (default false)"`
	Count              *int   `json:"count,omitempty" jsonschema:"Messages to request, 1 to 50 (default 50)"`
}

type PresenceArgs struct {
	Presence string `json:"presence" jsonschema:"available or unavailable"`
}

type JIDArgs struct {
	JID string `json:"jid" jsonschema:"Target JID"`
}

type ProfilePictureArgs struct {
	JID     string `json:"jid" jsonschema:"JID of a user or group"`
	Preview bool   `json:"preview,omitempty" jsonschema:"Return the low resolution thumbnail (default false)"`
}

type CreateNewsletterArgs struct {
	Name        string `json:"name" jsonschema:"Channel name"`
	Description string `json:"description,omitempty" jsonschema:"Channel description"`
}

type TypingArgs struct {
	ChatJID string `json:"chat_jid" jsonschema:"JID of the chat"`
	State   string `json:"state,omitempty" jsonschema:"typing (default), paused or recording"`
}

type AboutArgs struct {
	Text string `json:"text" jsonschema:"New about text"`
}

type DisappearingArgs struct {
	ChatJID  string `json:"chat_jid" jsonschema:"JID of the chat"`
	Duration string `json:"duration" jsonschema:"off, 24h, 7d or 90d"`
}

type PinArgs struct {
	ChatJID string `json:"chat_jid" jsonschema:"JID of the chat"`
	Pin     *bool  `json:"pin,omitempty" jsonschema:"true to pin, false to unpin (default true)"`
}

type MuteArgs struct {
	ChatJID  string `json:"chat_jid" jsonschema:"JID of the chat"`
	Mute     *bool  `json:"mute,omitempty" jsonschema:"true to mute, false to unmute (default true)"`
	Duration string `json:"duration,omitempty" jsonschema:"forever (default), 15m, 1h, 8h or 1w"`
}

type ArchiveArgs struct {
	ChatJID string `json:"chat_jid" jsonschema:"JID of the chat"`
	Archive *bool  `json:"archive,omitempty" jsonschema:"true to archive, false to unarchive (default true)"`
}

type noArgs struct{}

func (s *Server) registerActionTools() {
	b := s.bridge

	addTool(s, "send_message",
		"Send a WhatsApp text message to a person or group. For group chats use the group JID.",
		func(ctx context.Context, a SendMessageArgs) (bridge.Reply, error) {
			return b.SendMessage(ctx, a.Recipient, a.Message)
		})
	addTool(s, "send_file",
		"Send a picture, video, raw audio or document to a person or group.",
		func(ctx context.Context, a SendFileArgs) (bridge.Reply, error) {
			return b.SendFile(ctx, a.Recipient, a.MediaPath)
		})
	addTool(s, "send_audio_message",
		"Send an .ogg Opus file as a playable voice message. Use send_file for other audio formats.",
		func(ctx context.Context, a SendFileArgs) (bridge.Reply, error) {
			return b.SendAudioMessage(ctx, a.Recipient, a.MediaPath)
		})
	addTool(s, "download_media",
		"Download the attachment of a message and return the local file path.",
		func(ctx context.Context, a DownloadMediaArgs) (bridge.Reply, error) {
			return b.DownloadMedia(ctx, a.MessageID, a.ChatJID)
		})
	addTool(s, "send_reaction",
		"React to a message with an emoji, or remove your reaction with an empty emoji.",
		func(ctx context.Context, a ReactionArgs) (bridge.Reply, error) {
			return b.SendReaction(ctx, a.ChatJID, a.MessageID, a.Emoji)
		})
	addTool(s, "edit_message",
		"Edit the text of a message you sent.",
		func(ctx context.Context, a EditMessageArgs) (bridge.Reply, error) {
			return b.EditMessage(ctx, a.ChatJID, a.MessageID, a.NewContent)
		})
	addTool(s, "delete_message",
		"Delete a message for everyone.",
		func(ctx context.Context, a DeleteMessageArgs) (bridge.Reply, error) {
			return b.DeleteMessage(ctx, a.ChatJID, a.MessageID, a.SenderJID)
		})
	addTool(s, "mark_read",
		"Mark messages as read.",
		func(ctx context.Context, a MarkReadArgs) (bridge.Reply, error) {
			return b.MarkRead(ctx, a.ChatJID, a.MessageIDs, a.SenderJID)
		})

	addTool(s, "get_group_info",
		"Get group metadata and its participants.",
		func(ctx context.Context, a GroupArgs) (bridge.Reply, error) {
			return b.GetGroupInfo(ctx, a.GroupJID)
		})
	addTool(s, "create_group",
		"Create a group with the given participants.",
		func(ctx context.Context, a CreateGroupArgs) (bridge.Reply, error) {
			return b.CreateGroup(ctx, a.Name, a.Participants)
		})
	addTool(s, "add_group_members",
		"Add participants to a group.",
		func(ctx context.Context, a GroupMembersArgs) (bridge.Reply, error) {
			return b.AddGroupMembers(ctx, a.GroupJID, a.Participants)
		})
	addTool(s, "remove_group_members",
		"Remove participants from a group.",
		func(ctx context.Context, a GroupMembersArgs) (bridge.Reply, error) {
			return b.RemoveGroupMembers(ctx, a.GroupJID, a.Participants)
		})
	addTool(s, "promote_to_admin",
		"Make a group participant an admin.",
		func(ctx context.Context, a GroupParticipantArgs) (bridge.Reply, error) {
			return b.PromoteToAdmin(ctx, a.GroupJID, a.Participant)
		})
	addTool(s, "demote_admin",
		"Remove admin rights from a group participant.",
		func(ctx context.Context, a GroupParticipantArgs) (bridge.Reply, error) {
			return b.DemoteAdmin(ctx, a.GroupJID, a.Participant)
		})
	addTool(s, "leave_group",
		"Leave a group.",
		func(ctx context.Context, a GroupArgs) (bridge.Reply, error) {
			return b.LeaveGroup(ctx, a.GroupJID)
		})
	addTool(s, "update_group",
		"Change a group's name, topic or both.",
		func(ctx context.Context, a UpdateGroupArgs) (bridge.Reply, error) {
			return b.UpdateGroup(ctx, a.GroupJID, a.Name, a.Topic)
		})

	addTool(s, "create_poll",
		"Send a poll with 2 to 12 options to a chat.",
		func(ctx context.Context, a CreatePollArgs) (bridge.Reply, error) {
			return b.CreatePoll(ctx, a.ChatJID, a.Question, a.Options, a.MultiSelect)
		})
	addTool(s, "request_history",
		"Ask the phone to sync messages older than the oldest stored one. They appear in list_messages once the sync completes.",
		func(ctx context.Context, a RequestHistoryArgs) (bridge.Reply, error) {
			return b.RequestHistory(ctx, a.ChatJID, a.OldestMsgID, a.OldestMsgFromMe, a.OldestMsgTimestamp,
				intOr(a.Count, bridge.MaxHistoryCount))
		})

	addTool(s, "set_presence",
		"Set your own presence to available or unavailable.",
		func(ctx context.Context, a PresenceArgs) (bridge.Reply, error) {
			return b.SetPresence(ctx, a.Presence)
		})
	addTool(s, "subscribe_presence",
		"Subscribe to a contact's online and last-seen updates.",
		func(ctx context.Context, a JIDArgs) (bridge.Reply, error) {
			return b.SubscribePresence(ctx, a.JID)
		})
	addTool(s, "get_profile_picture",
		"Get the profile picture URL of a user or group.",
		func(ctx context.Context, a ProfilePictureArgs) (bridge.Reply, error) {
			return b.GetProfilePicture(ctx, a.JID, a.Preview)
		})
	addTool(s, "get_blocklist",
		"List blocked users.",
		func(ctx context.Context, _ noArgs) (bridge.Reply, error) {
			return b.GetBlocklist(ctx)
		})
	addTool(s, "block_user",
		"Block a user.",
		func(ctx context.Context, a JIDArgs) (bridge.Reply, error) {
			return b.BlockUser(ctx, a.JID)
		})
	addTool(s, "unblock_user",
		"Unblock a user.",
		func(ctx context.Context, a JIDArgs) (bridge.Reply, error) {
			return b.UnblockUser(ctx, a.JID)
		})
	addTool(s, "follow_newsletter",
		"Follow a WhatsApp channel.",
		func(ctx context.Context, a JIDArgs) (bridge.Reply, error) {
			return b.FollowNewsletter(ctx, a.JID)
		})
	addTool(s, "unfollow_newsletter",
		"Unfollow a WhatsApp channel.",
		func(ctx context.Context, a JIDArgs) (bridge.Reply, error) {
			return b.UnfollowNewsletter(ctx, a.JID)
		})
	addTool(s, "create_newsletter",
		"Create a WhatsApp channel.",
		func(ctx context.Context, a CreateNewsletterArgs) (bridge.Reply, error) {
			return b.CreateNewsletter(ctx, a.Name, a.Description)
		})
	addTool(s, "send_typing",
		"Show or clear the typing or recording indicator in a chat.",
		func(ctx context.Context, a TypingArgs) (bridge.Reply, error) {
			state := a.State
			if state == "" {
				state = "typing"
			}
			return b.SendTyping(ctx, a.ChatJID, state)
		})
	addTool(s, "set_about",
		"Set your profile about text.",
		func(ctx context.Context, a AboutArgs) (bridge.Reply, error) {
			return b.SetAbout(ctx, a.Text)
		})
	addTool(s, "set_disappearing_timer",
		"Set the disappearing messages timer of a chat.",
		func(ctx context.Context, a DisappearingArgs) (bridge.Reply, error) {
			return b.SetDisappearingTimer(ctx, a.ChatJID, a.Duration)
		})
	addTool(s, "get_privacy_settings",
		"Get your privacy settings.",
		func(ctx context.Context, _ noArgs) (bridge.Reply, error) {
			return b.GetPrivacySettings(ctx)
		})
	addTool(s, "pin_chat",
		"Pin or unpin a chat.",
		func(ctx context.Context, a PinArgs) (bridge.Reply, error) {
			return b.PinChat(ctx, a.ChatJID, boolOr(a.Pin, true))
		})
	addTool(s, "mute_chat",
		"Mute or unmute a chat.",
		func(ctx context.Context, a MuteArgs) (bridge.Reply, error) {
			return b.MuteChat(ctx, a.ChatJID, boolOr(a.Mute, true), a.Duration)
		})
	addTool(s, "archive_chat",
		"Archive or unarchive a chat.",
		func(ctx context.Context, a ArchiveArgs) (bridge.Reply, error) {
			return b.ArchiveChat(ctx, a.ChatJID, boolOr(a.Archive, true))
		})

	addTool(s, "bridge_health",
		"Check that the WhatsApp bridge is running.",
		func(ctx context.Context, _ noArgs) (bridge.Reply, error) {
			return b.Health(ctx)
		})
	addTool(s, "connection_status",
		"Get the bridge's WhatsApp connection state.",
		func(ctx context.Context, _ noArgs) (bridge.Reply, error) {
			return b.ConnectionStatus(ctx)
		})
	addTool(s, "sync_status",
		"Get history sync progress.",
		func(ctx context.Context, _ noArgs) (bridge.Reply, error) {
			return b.SyncStatus(ctx)
		})
}
