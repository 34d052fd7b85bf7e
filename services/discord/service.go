package discordsvc

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/rcos-io/portal/core"
)

// Endpoint is Discord's OAuth2 provider endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

type Service struct {
	session *discordgo.Session
	oauth   *oauth2.Config
	guildID string
}

var _ core.ChatService = (*Service)(nil)

func NewService(conf *core.Config) (*Service, error) {
	session, err := discordgo.New("Bot " + conf.Discord.BotToken)
	if err != nil {
		return nil, errors.Wrap(err, "creating bot session")
	}
	return &Service{
		session: session,
		guildID: conf.Discord.ServerID,
		oauth: &oauth2.Config{
			ClientID:     conf.Discord.ClientID,
			ClientSecret: conf.Discord.ClientSecret,
			RedirectURL:  conf.Discord.RedirectURL,
			Scopes:       []string{"identify"},
			Endpoint:     Endpoint,
		},
	}, nil
}

// AuthCodeURL returns the URL to send users to for account linking.
func (svc *Service) AuthCodeURL(state string) string {
	return svc.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an OAuth2 authorization code for the linked user's identity.
func (svc *Service) ExchangeCode(ctx context.Context, code string) (core.ChatUser, error) {
	token, err := svc.oauth.Exchange(ctx, code)
	if err != nil {
		return core.ChatUser{}, errors.Wrap(err, "exchanging code")
	}

	userSession, err := discordgo.New("Bearer " + token.AccessToken)
	if err != nil {
		return core.ChatUser{}, errors.Wrap(err, "creating user session")
	}
	usr, err := userSession.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return core.ChatUser{}, errors.Wrap(err, "fetching identity")
	}
	return chatUser(usr), nil
}

func (svc *Service) GetUser(ctx context.Context, userID string) (core.ChatUser, error) {
	usr, err := svc.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return core.ChatUser{}, errors.Wrap(err, "fetching user")
	}
	return chatUser(usr), nil
}

func (svc *Service) CreateScheduledEvent(ctx context.Context, event core.ChatEvent) (string, error) {
	created, err := svc.session.GuildScheduledEventCreate(svc.guildID, eventParams(event), discordgo.WithContext(ctx))
	if err != nil {
		return "", errors.Wrap(err, "creating scheduled event")
	}
	return created.ID, nil
}

func (svc *Service) UpdateScheduledEvent(ctx context.Context, event core.ChatEvent) error {
	_, err := svc.session.GuildScheduledEventEdit(svc.guildID, event.ID, eventParams(event), discordgo.WithContext(ctx))
	return errors.Wrap(err, "updating scheduled event")
}

func (svc *Service) AddMemberRole(ctx context.Context, userID, roleID string) error {
	err := svc.session.GuildMemberRoleAdd(svc.guildID, userID, roleID, discordgo.WithContext(ctx))
	return errors.Wrap(err, "adding member role")
}

func (svc *Service) RemoveMemberRole(ctx context.Context, userID, roleID string) error {
	err := svc.session.GuildMemberRoleRemove(svc.guildID, userID, roleID, discordgo.WithContext(ctx))
	return errors.Wrap(err, "removing member role")
}

func (svc *Service) SendDirectMessage(ctx context.Context, userID, content string) error {
	channel, err := svc.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "creating DM channel")
	}
	_, err = svc.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx))
	return errors.Wrap(err, "sending DM")
}

func eventParams(event core.ChatEvent) *discordgo.GuildScheduledEventParams {
	startsAt := event.StartsAt
	endsAt := event.EndsAt
	return &discordgo.GuildScheduledEventParams{
		Name:               event.Name,
		Description:        event.Description,
		ScheduledStartTime: &startsAt,
		ScheduledEndTime:   &endsAt,
		EntityType:         discordgo.GuildScheduledEventEntityTypeExternal,
		EntityMetadata:     &discordgo.GuildScheduledEventEntityMetadata{Location: event.Location},
		PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
	}
}

func chatUser(usr *discordgo.User) core.ChatUser {
	return core.ChatUser{
		ID:            usr.ID,
		Username:      usr.Username,
		Discriminator: usr.Discriminator,
		AvatarURL:     usr.AvatarURL(""),
	}
}
