package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"gnosislens-api/internal/fairness"
	"gnosislens-api/internal/oracle"
)

// MaxChatMessageLength bounds a chat message in bytes.
const MaxChatMessageLength = 2000

// ChatReply is a persona's answer.
type ChatReply struct {
	Persona fairness.Info `json:"persona"`
	Reply   string        `json:"reply"`
}

// ChatService lets users talk to a persona directly.
type ChatService struct {
	oracle oracle.Oracle
	log    zerolog.Logger
}

// NewChatService creates a new chat service.
func NewChatService(o oracle.Oracle, log zerolog.Logger) *ChatService {
	return &ChatService{
		oracle: o,
		log:    log.With().Str("service", "chat").Logger(),
	}
}

// Chat sends message to persona. Oracle failures are returned unchanged.
func (s *ChatService) Chat(ctx context.Context, persona fairness.Persona, displayName, location, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, &ValidationError{Field: "message", Message: "must not be empty"}
	}
	if len(message) > MaxChatMessageLength {
		return nil, &ValidationError{Field: "message", Message: "is too long"}
	}

	reply, err := s.oracle.Generate(ctx, persona.ChatPrompt(displayName, location, message))
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("persona", string(persona)).Int("chars", len(reply)).Msg("Chat answered")
	return &ChatReply{Persona: persona.Info(), Reply: strings.TrimSpace(reply)}, nil
}
