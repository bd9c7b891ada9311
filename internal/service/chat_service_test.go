package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/testutil"
	"ai-chat-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newChatService(store *testutil.Store, fake *testutil.FakeLLM) IChatService {
	return NewChatService(
		testutil.NewFactory(store),
		fake,
		testutil.NullPublisher{},
		testutil.NullLogger{},
	)
}

func TestNewChatConversation(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{
		Replies: []string{"Hello! How can I help you today?"},
		Usage:   &llm.Usage{PromptTokens: 20, CompletionTokens: 9, TotalTokens: 29},
	}
	svc := newChatService(store, fake)
	ctx := context.Background()
	userId := uuid.New()

	chat, err := svc.CreateChat(ctx, userId)
	assert.NoError(t, err)
	assert.Equal(t, constant.DefaultChatTitle, chat.Title)

	res, err := svc.SendMessage(ctx, userId, chat.Id, &dto.PostMessageRequest{Content: "Hi"})
	assert.NoError(t, err)
	assert.Equal(t, "Hi", res.UserMessage.Content)
	assert.Equal(t, constant.MessageRoleUser, res.UserMessage.Role)
	assert.Equal(t, "Hello! How can I help you today?", res.AiMessage.Content)
	assert.Equal(t, constant.MessageRoleAssistant, res.AiMessage.Role)

	// Short first message becomes the title verbatim.
	chats, err := svc.ListChats(ctx, userId)
	assert.NoError(t, err)
	assert.Len(t, chats, 1)
	assert.Equal(t, "Hi", chats[0].Title)

	messages, err := svc.GetMessages(ctx, userId, chat.Id)
	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, constant.MessageRoleUser, messages[0].Role)
	assert.Equal(t, constant.MessageRoleAssistant, messages[1].Role)

	// Stored assistant message keeps the provider's token accounting.
	for _, m := range store.Messages {
		if m.Role == constant.MessageRoleAssistant {
			assert.NotNil(t, m.Usage)
			assert.Equal(t, 29, m.Usage.TotalTokens)
		}
	}
}

func TestTitleDerivationTruncates(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Replies: []string{"ok"}}
	svc := newChatService(store, fake)
	ctx := context.Background()
	userId := uuid.New()

	long := strings.Repeat("a", 45)
	chat, _ := svc.CreateChat(ctx, userId)
	_, err := svc.SendMessage(ctx, userId, chat.Id, &dto.PostMessageRequest{Content: long})
	assert.NoError(t, err)

	chats, _ := svc.ListChats(ctx, userId)
	assert.Equal(t, strings.Repeat("a", 30)+"...", chats[0].Title)

	// Title is derived once; later messages leave it alone.
	_, err = svc.SendMessage(ctx, userId, chat.Id, &dto.PostMessageRequest{Content: "second message"})
	assert.NoError(t, err)
	chats, _ = svc.ListChats(ctx, userId)
	assert.Equal(t, strings.Repeat("a", 30)+"...", chats[0].Title)
}

func TestSendIncludesPreambleAndFullHistory(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Replies: []string{"first reply", "second reply"}}
	svc := newChatService(store, fake)
	ctx := context.Background()
	userId := uuid.New()

	chat, _ := svc.CreateChat(ctx, userId)
	svc.SendMessage(ctx, userId, chat.Id, &dto.PostMessageRequest{Content: "one"})
	svc.SendMessage(ctx, userId, chat.Id, &dto.PostMessageRequest{Content: "two"})

	assert.Len(t, fake.Requests, 2)
	second := fake.Requests[1]
	// preamble + user/assistant/user
	assert.Len(t, second, 4)
	assert.Equal(t, constant.MessageRoleSystem, second[0].Role)
	assert.Equal(t, constant.SystemPreamble, second[0].Content)
	assert.Equal(t, "one", second[1].Content)
	assert.Equal(t, "first reply", second[2].Content)
	assert.Equal(t, "two", second[3].Content)
}

func TestSendFallbackOnEmptyReply(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Replies: []string{""}}
	svc := newChatService(store, fake)
	ctx := context.Background()
	userId := uuid.New()

	chat, _ := svc.CreateChat(ctx, userId)
	res, err := svc.SendMessage(ctx, userId, chat.Id, &dto.PostMessageRequest{Content: "Hi"})
	assert.NoError(t, err)
	assert.Equal(t, constant.FallbackReply, res.AiMessage.Content)

	// An empty reply still persists both sides of the exchange.
	messages, _ := svc.GetMessages(ctx, userId, chat.Id)
	assert.Len(t, messages, 2)
}

func TestSendProviderErrorSurfaces(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Err: errors.New("upstream down")}
	svc := newChatService(store, fake)
	ctx := context.Background()
	userId := uuid.New()

	chat, _ := svc.CreateChat(ctx, userId)
	res, err := svc.SendMessage(ctx, userId, chat.Id, &dto.PostMessageRequest{Content: "Hi"})
	assert.Error(t, err)
	assert.Nil(t, res)

	// The user message is kept; no assistant row is written.
	assert.Len(t, store.Messages, 1)
	for _, m := range store.Messages {
		assert.Equal(t, constant.MessageRoleUser, m.Role)
		assert.Equal(t, "Hi", m.Content)
	}
}

func TestForeignChatLooksAbsent(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Replies: []string{"ok"}}
	svc := newChatService(store, fake)
	ctx := context.Background()

	owner := uuid.New()
	intruder := uuid.New()
	chat, _ := svc.CreateChat(ctx, owner)

	_, err := svc.GetMessages(ctx, intruder, chat.Id)
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = svc.SendMessage(ctx, intruder, chat.Id, &dto.PostMessageRequest{Content: "Hi"})
	assert.ErrorIs(t, err, ErrChatNotFound)

	err = svc.DeleteChat(ctx, intruder, chat.Id)
	assert.ErrorIs(t, err, ErrChatNotFound)

	// The owner is unaffected.
	messages, err := svc.GetMessages(ctx, owner, chat.Id)
	assert.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDeleteChatCascades(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Replies: []string{"ok"}}
	svc := newChatService(store, fake)
	ctx := context.Background()
	userId := uuid.New()

	keep, _ := svc.CreateChat(ctx, userId)
	doomed, _ := svc.CreateChat(ctx, userId)
	svc.SendMessage(ctx, userId, keep.Id, &dto.PostMessageRequest{Content: "stays"})
	svc.SendMessage(ctx, userId, doomed.Id, &dto.PostMessageRequest{Content: "goes"})

	err := svc.DeleteChat(ctx, userId, doomed.Id)
	assert.NoError(t, err)

	// No orphan messages survive the chat.
	for _, m := range store.Messages {
		assert.NotEqual(t, doomed.Id, m.ChatId)
	}

	chats, _ := svc.ListChats(ctx, userId)
	assert.Len(t, chats, 1)
	assert.Equal(t, keep.Id, chats[0].Id)

	_, err = svc.GetMessages(ctx, userId, doomed.Id)
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestListChatsOrdersByActivity(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Replies: []string{"ok"}}
	svc := newChatService(store, fake)
	ctx := context.Background()
	userId := uuid.New()

	first, _ := svc.CreateChat(ctx, userId)
	second, _ := svc.CreateChat(ctx, userId)

	// Activity on the older chat bumps it to the front.
	_, err := svc.SendMessage(ctx, userId, first.Id, &dto.PostMessageRequest{Content: "bump"})
	assert.NoError(t, err)

	chats, err := svc.ListChats(ctx, userId)
	assert.NoError(t, err)
	assert.Len(t, chats, 2)
	assert.Equal(t, first.Id, chats[0].Id)
	assert.Equal(t, second.Id, chats[1].Id)
}

func TestSendToLatestCreatesChatLazily(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Replies: []string{"Hello!"}}
	svc := newChatService(store, fake)
	ctx := context.Background()
	userId := uuid.New()

	res, err := svc.SendToLatest(ctx, userId, &dto.QuickMessageRequest{Message: "Hi"})
	assert.NoError(t, err)
	assert.Equal(t, "Hello!", res.AiMessage.Content)

	// A chat sprang into existence and took its title from the message.
	chats, err := svc.ListChats(ctx, userId)
	assert.NoError(t, err)
	assert.Len(t, chats, 1)
	assert.Equal(t, "Hi", chats[0].Title)

	messages, err := svc.GetMessages(ctx, userId, chats[0].Id)
	assert.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestSendToLatestUsesMostRecentChat(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Replies: []string{"ok"}}
	svc := newChatService(store, fake)
	ctx := context.Background()
	userId := uuid.New()

	older, _ := svc.CreateChat(ctx, userId)
	newer, _ := svc.CreateChat(ctx, userId)

	// Activity makes the older chat the most recent one.
	_, err := svc.SendMessage(ctx, userId, older.Id, &dto.PostMessageRequest{Content: "bump"})
	assert.NoError(t, err)

	_, err = svc.SendToLatest(ctx, userId, &dto.QuickMessageRequest{Message: "follow-up"})
	assert.NoError(t, err)

	olderMsgs, _ := svc.GetMessages(ctx, userId, older.Id)
	assert.Len(t, olderMsgs, 4)
	newerMsgs, _ := svc.GetMessages(ctx, userId, newer.Id)
	assert.Empty(t, newerMsgs)

	// No extra chat was created along the way.
	chats, _ := svc.ListChats(ctx, userId)
	assert.Len(t, chats, 2)
}

func TestDemoAnswer(t *testing.T) {
	store := testutil.NewStore()
	fake := &testutil.FakeLLM{Replies: []string{"42"}}
	svc := newChatService(store, fake)

	res, err := svc.DemoAnswer(context.Background(), &dto.DemoAnswerRequest{Question: "meaning of life?"})
	assert.NoError(t, err)
	assert.Equal(t, "42", res.Answer)

	// One-shot: preamble plus the question, nothing persisted.
	assert.Len(t, fake.Requests, 1)
	assert.Len(t, fake.Requests[0], 2)
	assert.Equal(t, constant.SystemPreamble, fake.Requests[0][0].Content)
	assert.Empty(t, store.Messages)
}
