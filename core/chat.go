package core

import (
	"context"
	"time"
)

type (
	// ChatEvent mirrors a scheduled event on the chat platform (a Discord server event).
	ChatEvent struct {
		ID          string
		Name        string
		Description string
		Location    string
		StartsAt    time.Time
		EndsAt      time.Time
	}

	// ChatUser is the linked chat-platform identity of a portal user.
	ChatUser struct {
		ID            string
		Username      string
		Discriminator string
		AvatarURL     string
	}

	// ChatService is any service that can mirror portal records onto the chat platform.
	// Implementations are best effort; callers treat failures as non-fatal.
	ChatService interface {
		GetUser(ctx context.Context, userID string) (ChatUser, error)
		CreateScheduledEvent(ctx context.Context, event ChatEvent) (string, error)
		UpdateScheduledEvent(ctx context.Context, event ChatEvent) error
		AddMemberRole(ctx context.Context, userID, roleID string) error
		RemoveMemberRole(ctx context.Context, userID, roleID string) error
		SendDirectMessage(ctx context.Context, userID, content string) error
	}
)
