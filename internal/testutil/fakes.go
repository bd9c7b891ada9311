package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/llm"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is a shared in-memory dataset behind the fake repositories. One Store
// per test; every unit of work minted from it sees the same data.
type Store struct {
	mu       sync.Mutex
	Users    map[uuid.UUID]*entity.User
	Chats    map[uuid.UUID]*entity.Chat
	Messages map[uuid.UUID]*entity.Message

	Providers []*entity.UserProvider

	// seq orders messages and chats deterministically even when CreatedAt
	// timestamps collide within a test.
	seq   int64
	order map[uuid.UUID]int64
}

func NewStore() *Store {
	return &Store{
		Users:    make(map[uuid.UUID]*entity.User),
		Chats:    make(map[uuid.UUID]*entity.Chat),
		Messages: make(map[uuid.UUID]*entity.Message),
		order:    make(map[uuid.UUID]int64),
	}
}

func (s *Store) next(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

// Factory implements unitofwork.RepositoryFactory over the store.
type Factory struct {
	Store *Store
}

func NewFactory(store *Store) *Factory {
	return &Factory{Store: store}
}

func (f *Factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{store: f.Store}
}

type fakeUoW struct {
	store *Store
}

// The fakes have no transaction isolation; Begin/Commit/Rollback are no-ops
// so transactional call sequences still execute.
func (u *fakeUoW) Begin(ctx context.Context) error { return nil }
func (u *fakeUoW) Commit() error                   { return nil }
func (u *fakeUoW) Rollback() error                 { return nil }

func (u *fakeUoW) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func (u *fakeUoW) ChatRepository() contract.ChatRepository {
	return &fakeChatRepo{store: u.store}
}

func (u *fakeUoW) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{store: u.store}
}

// matchers evaluate the query specifications in memory.

type rowFields struct {
	id     uuid.UUID
	userId uuid.UUID
	chatId uuid.UUID
	email  string
}

func matches(specs []specification.Specification, row rowFields) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if row.id != s.ID {
				return false
			}
		case specification.ByEmail:
			if row.email != s.Email {
				return false
			}
		case specification.OwnedBy:
			if row.userId != s.UserID {
				return false
			}
		case specification.ByChatID:
			if row.chatId != s.ChatID {
				return false
			}
		}
	}
	return true
}

func orderDesc(specs []specification.Specification) bool {
	for _, spec := range specs {
		if s, ok := spec.(specification.OrderBy); ok {
			return s.Desc
		}
	}
	return false
}

// User repository

type fakeUserRepo struct {
	store *Store
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.Users[user.Id]; exists {
		return gorm.ErrDuplicatedKey
	}
	for _, u := range r.store.Users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *user
	r.store.Users[user.Id] = &cp
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *user
	r.store.Users[user.Id] = &cp
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.Users {
		if matches(specs, rowFields{id: u.Id, email: u.Email}) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, u := range r.store.Users {
		if matches(specs, rowFields{id: u.Id, email: u.Email}) {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.Users[userId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = &hash
	return nil
}

func (r *fakeUserRepo) SaveProvider(ctx context.Context, provider *entity.UserProvider) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *provider
	r.store.Providers = append(r.store.Providers, &cp)
	return nil
}

// Chat repository

type fakeChatRepo struct {
	store *Store
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *chat
	r.store.Chats[chat.Id] = &cp
	r.store.next(chat.Id)
	return nil
}

func (r *fakeChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *chat
	r.store.Chats[chat.Id] = &cp
	return nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.Chats, id)
	return nil
}

func (r *fakeChatRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.Chats {
		if matches(specs, rowFields{id: c.Id, userId: c.UserId}) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeChatRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var res []*entity.Chat
	for _, c := range r.store.Chats {
		if matches(specs, rowFields{id: c.Id, userId: c.UserId}) {
			cp := *c
			res = append(res, &cp)
		}
	}
	desc := orderDesc(specs)
	sort.Slice(res, func(i, j int) bool {
		// updated_at ordering; sequence breaks ties
		if !res[i].UpdatedAt.Equal(res[j].UpdatedAt) {
			if desc {
				return res[i].UpdatedAt.After(res[j].UpdatedAt)
			}
			return res[i].UpdatedAt.Before(res[j].UpdatedAt)
		}
		if desc {
			return r.store.order[res[i].Id] > r.store.order[res[j].Id]
		}
		return r.store.order[res[i].Id] < r.store.order[res[j].Id]
	})
	return res, nil
}

func (r *fakeChatRepo) Touch(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.Chats[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// Strictly after every other chat, regardless of clock resolution.
	latest := time.Now()
	for _, other := range r.store.Chats {
		if other.UpdatedAt.After(latest) {
			latest = other.UpdatedAt
		}
	}
	c.UpdatedAt = latest.Add(time.Millisecond)
	r.store.next(id)
	return nil
}

// Message repository

type fakeMessageRepo struct {
	store *Store
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *message
	r.store.Messages[message.Id] = &cp
	r.store.next(message.Id)
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var res []*entity.Message
	for _, m := range r.store.Messages {
		if matches(specs, rowFields{id: m.Id, userId: m.UserId, chatId: m.ChatId}) {
			cp := *m
			res = append(res, &cp)
		}
	}
	desc := orderDesc(specs)
	sort.Slice(res, func(i, j int) bool {
		if desc {
			return r.store.order[res[i].Id] > r.store.order[res[j].Id]
		}
		return r.store.order[res[i].Id] < r.store.order[res[j].Id]
	})
	return res, nil
}

func (r *fakeMessageRepo) DeleteByChatId(ctx context.Context, chatId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, m := range r.store.Messages {
		if m.ChatId == chatId {
			delete(r.store.Messages, id)
		}
	}
	return nil
}

// FakeLLM replays scripted completions and records what it was asked.
type FakeLLM struct {
	mu       sync.Mutex
	Replies  []string
	Err      error
	Usage    *llm.Usage
	Requests [][]llm.Message
	calls    int
}

func (f *FakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, history)
	if f.Err != nil {
		return nil, f.Err
	}
	reply := ""
	if len(f.Replies) > 0 {
		reply = f.Replies[f.calls%len(f.Replies)]
	}
	f.calls++
	return &llm.Result{Content: reply, Usage: f.Usage}, nil
}

func (f *FakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Result, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// NullPublisher discards audit events in tests.
type NullPublisher struct{}

func (NullPublisher) Publish(ctx context.Context, _ events.Event) {}

// NullLogger satisfies logger.ILogger without output.
type NullLogger struct{}

func (NullLogger) Debug(module, message string, details map[string]interface{}) {}
func (NullLogger) Info(module, message string, details map[string]interface{})  {}
func (NullLogger) Warn(module, message string, details map[string]interface{})  {}
func (NullLogger) Error(module, message string, details map[string]interface{}) {}
func (NullLogger) Sync() error                                                  { return nil }
