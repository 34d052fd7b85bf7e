package discordsvc

import (
	"context"
	"strconv"
	"sync"

	"github.com/rcos-io/portal/core"
)

// Mock records chat calls in memory for tests.
type Mock struct {
	mu sync.Mutex

	Users       map[string]core.ChatUser
	Events      map[string]core.ChatEvent
	MemberRoles map[string][]string
	DMs         map[string][]string

	// Err, when set, is returned by every call.
	Err error

	nextEventID int
}

var _ core.ChatService = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{
		Users:       make(map[string]core.ChatUser),
		Events:      make(map[string]core.ChatEvent),
		MemberRoles: make(map[string][]string),
		DMs:         make(map[string][]string),
	}
}

func (m *Mock) GetUser(ctx context.Context, userID string) (core.ChatUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return core.ChatUser{}, m.Err
	}
	return m.Users[userID], nil
}

func (m *Mock) CreateScheduledEvent(ctx context.Context, event core.ChatEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.nextEventID++
	event.ID = strconv.Itoa(m.nextEventID)
	m.Events[event.ID] = event
	return event.ID, nil
}

func (m *Mock) UpdateScheduledEvent(ctx context.Context, event core.ChatEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events[event.ID] = event
	return nil
}

func (m *Mock) AddMemberRole(ctx context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.MemberRoles[userID] = append(m.MemberRoles[userID], roleID)
	return nil
}

func (m *Mock) RemoveMemberRole(ctx context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	roles := m.MemberRoles[userID]
	for i, id := range roles {
		if id == roleID {
			m.MemberRoles[userID] = append(roles[:i], roles[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Mock) SendDirectMessage(ctx context.Context, userID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.DMs[userID] = append(m.DMs[userID], content)
	return nil
}
