package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnosislens-api/internal/fairness"
	"gnosislens-api/internal/oracle"
)

func TestChatService_Chat(t *testing.T) {
	var prompt string
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "  Between you and me, start at half.  ", nil
	})
	svc := NewChatService(o, zerolog.Nop())

	reply, err := svc.Chat(context.Background(), fairness.PersonaMetis, "Sara", "Cairo", "How do I bargain?")
	require.NoError(t, err)
	assert.Equal(t, "Between you and me, start at half.", reply.Reply)
	assert.Equal(t, fairness.PersonaMetis, reply.Persona.ID)
	assert.Contains(t, prompt, "How do I bargain?")
	assert.Contains(t, prompt, "Metis")
}

func TestChatService_Validation(t *testing.T) {
	svc := NewChatService(oracle.Func(func(ctx context.Context, p string) (string, error) {
		t.Fatal("oracle must not be called")
		return "", nil
	}), zerolog.Nop())

	_, err := svc.Chat(context.Background(), fairness.PersonaDike, "", "", "   ")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.Chat(context.Background(), fairness.PersonaDike, "", "", strings.Repeat("a", MaxChatMessageLength+1))
	assert.ErrorAs(t, err, &vErr)
}
