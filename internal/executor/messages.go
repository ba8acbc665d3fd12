package executor

import (
	"context"
	"fmt"
	"strings"

	"concord/internal/llm"
	"concord/internal/tools"
)

func (e *Executor) sendMessage(ctx context.Context, args map[string]any) *tools.ToolResult {
	channelID, err := e.api.ResolveChannel(ctx, argString(args, "channel_id", ""))
	if err != nil {
		return platformFailure(err)
	}

	msg, err := e.api.SendMessage(ctx, channelID, argString(args, "content", ""), argStringSlice(args, "mentions"))
	if err != nil {
		return platformFailure(err)
	}
	return success(
		fmt.Sprintf("Message sent to channel %s.", channelID),
		map[string]any{"message_id": msg.ID, "channel_id": msg.ChannelID},
	)
}

func (e *Executor) serverInfo(ctx context.Context) *tools.ToolResult {
	info, err := e.api.ServerInfo(ctx)
	if err != nil {
		return platformFailure(err)
	}
	return success(
		fmt.Sprintf("Server %q: %d members, %d online.", info.Name, info.MemberCount, info.OnlineCount),
		map[string]any{"server": info},
	)
}

func (e *Executor) listChannels(ctx context.Context, args map[string]any) *tools.ToolResult {
	channels, err := e.api.ListChannels(ctx)
	if err != nil {
		return platformFailure(err)
	}

	filter := argString(args, "channel_type", "all")
	var lines []string
	var matched int
	for _, ch := range channels {
		if filter != "all" && ch.Type != filter {
			continue
		}
		matched++
		lines = append(lines, fmt.Sprintf("- #%s (%s)", ch.Name, ch.Type))
	}
	if matched == 0 {
		return success("No channels found.", map[string]any{"count": 0})
	}
	return success(
		fmt.Sprintf("%d channels:\n%s", matched, strings.Join(lines, "\n")),
		map[string]any{"count": matched},
	)
}

func (e *Executor) onlineMembersCount(ctx context.Context) *tools.ToolResult {
	members, err := e.api.ListMembers(ctx)
	if err != nil {
		return platformFailure(err)
	}
	online := 0
	for _, m := range members {
		if m.Online {
			online++
		}
	}
	return success(
		fmt.Sprintf("%d of %d members are online.", online, len(members)),
		map[string]any{"online": online, "total": len(members)},
	)
}

func (e *Executor) listOnlineMembers(ctx context.Context, args map[string]any) *tools.ToolResult {
	members, err := e.api.ListMembers(ctx)
	if err != nil {
		return platformFailure(err)
	}

	limit := clampInt(argInt(args, "limit", 0), 20, 100)
	var names []string
	online := 0
	for _, m := range members {
		if !m.Online {
			continue
		}
		online++
		if len(names) < limit {
			names = append(names, m.Name)
		}
	}
	if online == 0 {
		return success("Nobody is online right now.", map[string]any{"online": 0})
	}

	content := fmt.Sprintf("Online (%d): %s", online, strings.Join(names, ", "))
	if online > len(names) {
		content += fmt.Sprintf(" and %d more", online-len(names))
	}
	return success(content, map[string]any{"online": online, "names": names})
}

func (e *Executor) deleteMessage(ctx context.Context, args map[string]any) *tools.ToolResult {
	channelID, err := e.api.ResolveChannel(ctx, argString(args, "channel_id", ""))
	if err != nil {
		return platformFailure(err)
	}

	messageID := argString(args, "message_id", "")
	needle := argString(args, "content", "")
	if messageID == "" && needle == "" {
		return tools.Failure("", tools.KindInvalidArguments, "either %q or %q must be set", "message_id", "content")
	}

	if messageID == "" {
		// Content search over the recent window, newest first.
		msgs, err := e.api.ChannelMessages(ctx, channelID, 50)
		if err != nil {
			return platformFailure(err)
		}
		for _, m := range msgs {
			if strings.Contains(strings.ToLower(m.Content), strings.ToLower(needle)) {
				messageID = m.ID
				break
			}
		}
		if messageID == "" {
			return tools.Failure("", tools.KindExecutionFailed, "no recent message matching %q in channel %s", needle, channelID)
		}
	}

	if err := e.api.DeleteMessage(ctx, channelID, messageID); err != nil {
		return platformFailure(err)
	}
	return success(
		fmt.Sprintf("Deleted message %s from channel %s.", messageID, channelID),
		map[string]any{"message_id": messageID, "channel_id": channelID},
	)
}

func (e *Executor) deleteLastMessage(ctx context.Context, args map[string]any) *tools.ToolResult {
	channelID, err := e.api.ResolveChannel(ctx, argString(args, "channel_id", ""))
	if err != nil {
		return platformFailure(err)
	}

	msgs, err := e.api.ChannelMessages(ctx, channelID, 1)
	if err != nil {
		return platformFailure(err)
	}
	if len(msgs) == 0 {
		return tools.Failure("", tools.KindExecutionFailed, "channel %s has no messages", channelID)
	}

	if err := e.api.DeleteMessage(ctx, channelID, msgs[0].ID); err != nil {
		return platformFailure(err)
	}
	return success(
		fmt.Sprintf("Deleted the latest message (%s) from channel %s.", msgs[0].ID, channelID),
		map[string]any{"message_id": msgs[0].ID, "channel_id": channelID},
	)
}

func (e *Executor) channelMessages(ctx context.Context, args map[string]any) *tools.ToolResult {
	channelID, err := e.api.ResolveChannel(ctx, argString(args, "channel_id", ""))
	if err != nil {
		return platformFailure(err)
	}

	limit := clampInt(argInt(args, "limit", 0), 5, 100)
	msgs, err := e.api.ChannelMessages(ctx, channelID, limit)
	if err != nil {
		return platformFailure(err)
	}
	if len(msgs) == 0 {
		return success("The channel has no recent messages.", map[string]any{"count": 0})
	}

	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.Timestamp.Format("2 Jan 15:04"), m.Author, m.Content)
	}
	return success(strings.TrimRight(b.String(), "\n"), map[string]any{"count": len(msgs)})
}

func (e *Executor) summarizeChannel(ctx context.Context, args map[string]any) *tools.ToolResult {
	if e.summarizer == nil {
		return tools.Failure("", tools.KindExecutionFailed, "no summarization model is configured")
	}

	channelID, err := e.api.ResolveChannel(ctx, argString(args, "channel_id", ""))
	if err != nil {
		return platformFailure(err)
	}

	limit := clampInt(argInt(args, "limit", 0), 10, 50)
	msgs, err := e.api.ChannelMessages(ctx, channelID, limit)
	if err != nil {
		return platformFailure(err)
	}
	if len(msgs) == 0 {
		return success("The channel has no recent messages to summarize.", map[string]any{"count": 0})
	}

	var transcript strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Author, m.Content)
	}

	resp, err := e.summarizer.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "Summarize the following chat transcript in a few sentences. Mention the main topics and who is active."},
			{Role: llm.RoleUser, Content: transcript.String()},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return platformFailure(err)
	}
	return success(resp.Content, map[string]any{"message_count": len(msgs)})
}
