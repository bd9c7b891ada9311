package service

import (
	"context"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/llm"

	"github.com/google/uuid"
)

type IChatService interface {
	CreateChat(ctx context.Context, userId uuid.UUID) (*dto.ChatDTO, error)
	ListChats(ctx context.Context, userId uuid.UUID) ([]*dto.ChatDTO, error)
	GetMessages(ctx context.Context, userId, chatId uuid.UUID) ([]*dto.MessageDTO, error)
	SendMessage(ctx context.Context, userId, chatId uuid.UUID, req *dto.PostMessageRequest) (*dto.PostMessageResponse, error)
	SendToLatest(ctx context.Context, userId uuid.UUID, req *dto.QuickMessageRequest) (*dto.PostMessageResponse, error)
	DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error
	DemoAnswer(ctx context.Context, req *dto.DemoAnswerRequest) (*dto.DemoAnswerResponse, error)
}

type chatService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	publisher   IPublisherService
	logger      logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	publisher IPublisherService,
	logger logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *chatService) CreateChat(ctx context.Context, userId uuid.UUID) (*dto.ChatDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat := &entity.Chat{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.DefaultChatTitle,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uow.ChatRepository().Create(ctx, chat); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.BaseEvent{
		Type:       events.TypeChatCreated,
		OccurredAt: time.Now(),
		Data: map[string]interface{}{
			"chat_id": chat.Id.String(),
			"user_id": userId.String(),
		},
	})

	return toChatDTO(chat), nil
}

func (s *chatService) ListChats(ctx context.Context, userId uuid.UUID) ([]*dto.ChatDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatDTO, len(chats))
	for i, c := range chats {
		res[i] = toChatDTO(c)
	}
	return res, nil
}

func (s *chatService) GetMessages(ctx context.Context, userId, chatId uuid.UUID) ([]*dto.MessageDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.ownedChat(ctx, uow, userId, chatId); err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageDTO, len(messages))
	for i, m := range messages {
		res[i] = toMessageDTO(m)
	}
	return res, nil
}

func (s *chatService) SendMessage(ctx context.Context, userId, chatId uuid.UUID, req *dto.PostMessageRequest) (*dto.PostMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := s.ownedChat(ctx, uow, userId, chatId)
	if err != nil {
		return nil, err
	}

	return s.exchange(ctx, uow, chat, req.Content)
}

// SendToLatest appends to the caller's most recently active chat, starting one
// when the caller has none yet.
func (s *chatService) SendToLatest(ctx context.Context, userId uuid.UUID, req *dto.QuickMessageRequest) (*dto.PostMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	var chat *entity.Chat
	if len(chats) > 0 {
		chat = chats[0]
	} else {
		chat = &entity.Chat{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     constant.DefaultChatTitle,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := uow.ChatRepository().Create(ctx, chat); err != nil {
			return nil, err
		}
		s.publisher.Publish(ctx, events.BaseEvent{
			Type:       events.TypeChatCreated,
			OccurredAt: time.Now(),
			Data: map[string]interface{}{
				"chat_id": chat.Id.String(),
				"user_id": userId.String(),
			},
		})
	}

	return s.exchange(ctx, uow, chat, req.Message)
}

func (s *chatService) exchange(ctx context.Context, uow unitofwork.UnitOfWork, chat *entity.Chat, content string) (*dto.PostMessageResponse, error) {
	// First user message names the chat.
	if chat.Title == constant.DefaultChatTitle {
		chat.Title = deriveTitle(content)
		chat.UpdatedAt = time.Now()
		if err := uow.ChatRepository().Update(ctx, chat); err != nil {
			return nil, err
		}
	}

	userMsg := &entity.Message{
		Id:        uuid.New(),
		Content:   content,
		Role:      constant.MessageRoleUser,
		UserId:    chat.UserId,
		ChatId:    chat.Id,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, userMsg); err != nil {
		return nil, err
	}

	history, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chat.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	reply, usage, err := s.complete(ctx, history)
	if err != nil {
		// The user message stays; the caller gets the generic 500.
		return nil, err
	}

	aiMsg := &entity.Message{
		Id:        uuid.New(),
		Content:   reply,
		Role:      constant.MessageRoleAssistant,
		UserId:    chat.UserId,
		ChatId:    chat.Id,
		Usage:     usage,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, aiMsg); err != nil {
		return nil, err
	}

	if err := uow.ChatRepository().Touch(ctx, chat.Id); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.BaseEvent{
		Type:       events.TypeMessageExchanged,
		OccurredAt: time.Now(),
		Data: map[string]interface{}{
			"chat_id": chat.Id.String(),
			"user_id": chat.UserId.String(),
		},
	})

	return &dto.PostMessageResponse{
		UserMessage: *toMessageDTO(userMsg),
		AiMessage:   *toMessageDTO(aiMsg),
	}, nil
}

func (s *chatService) DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.ownedChat(ctx, uow, userId, chatId); err != nil {
		return err
	}

	// Messages and chat go together or not at all.
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.MessageRepository().DeleteByChatId(ctx, chatId); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.ChatRepository().Delete(ctx, chatId); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.BaseEvent{
		Type:       events.TypeChatDeleted,
		OccurredAt: time.Now(),
		Data: map[string]interface{}{
			"chat_id": chatId.String(),
			"user_id": userId.String(),
		},
	})

	return nil
}

// DemoAnswer serves the unauthenticated single-shot completion. Nothing is
// persisted.
func (s *chatService) DemoAnswer(ctx context.Context, req *dto.DemoAnswerRequest) (*dto.DemoAnswerResponse, error) {
	result, err := s.llmProvider.Chat(ctx, []llm.Message{
		{Role: constant.MessageRoleSystem, Content: constant.SystemPreamble},
		{Role: constant.MessageRoleUser, Content: req.Question},
	})
	if err != nil {
		s.logger.Error("chat", "Demo completion failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	answer := result.Content
	if answer == "" {
		answer = constant.FallbackReply
	}
	return &dto.DemoAnswerResponse{Answer: answer}, nil
}

// ownedChat loads a chat only when it belongs to the caller. Absent and
// foreign chats are indistinguishable to the caller.
func (s *chatService) ownedChat(ctx context.Context, uow unitofwork.UnitOfWork, userId, chatId uuid.UUID) (*entity.Chat, error) {
	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return chat, nil
}

// complete forwards the full ordered history, preamble first. Provider errors
// surface to the caller; the fallback apology covers only an empty reply.
func (s *chatService) complete(ctx context.Context, history []*entity.Message) (string, *entity.MessageUsage, error) {
	prompt := make([]llm.Message, 0, len(history)+1)
	prompt = append(prompt, llm.Message{Role: constant.MessageRoleSystem, Content: constant.SystemPreamble})
	for _, m := range history {
		prompt = append(prompt, llm.Message{Role: m.Role, Content: m.Content})
	}

	result, err := s.llmProvider.Chat(ctx, prompt)
	if err != nil {
		s.logger.Error("chat", "Completion request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", nil, err
	}
	if result.Content == "" {
		return constant.FallbackReply, nil, nil
	}

	var usage *entity.MessageUsage
	if result.Usage != nil {
		usage = &entity.MessageUsage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		}
	}
	return result.Content, usage, nil
}

func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > constant.ChatTitleMaxLen {
		return string(runes[:constant.ChatTitleMaxLen]) + "..."
	}
	return content
}

func toChatDTO(c *entity.Chat) *dto.ChatDTO {
	return &dto.ChatDTO{
		Id:        c.Id,
		Title:     c.Title,
		UserId:    c.UserId,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toMessageDTO(m *entity.Message) *dto.MessageDTO {
	return &dto.MessageDTO{
		Id:        m.Id,
		Content:   m.Content,
		Role:      m.Role,
		UserId:    m.UserId,
		ChatId:    m.ChatId,
		CreatedAt: m.CreatedAt,
	}
}
