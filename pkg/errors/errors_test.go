package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", NewValidationError("bad interval", nil), IsValidationError},
		{"dns", NewDNSError("not found", nil), IsDNSError},
		{"tool", NewToolError("non-zero exit", nil), IsToolError},
		{"environment", NewMissingVariableError("JWT_SECRET"), IsEnvironmentError},
		{"timeout", NewTimeoutError("slow", nil), IsTimeoutError},
		{"io", NewIOError("read", nil), IsIOError},
		{"internal", NewInternalError("boom", nil), IsInternalError},
		{"cancelled", NewCancelledError("interrupted", nil), IsCancelledError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.check(wrapped))
			assert.False(t, IsInternalError(NewValidationError("x", nil)))
		})
	}
}

func TestDomainErrorUnwrapAndMessage(t *testing.T) {
	cause := stderrors.New("exec: \"pnpm\": executable file not found")
	err := NewToolError("spawn failed", cause).WithContext("command", "pnpm")

	assert.Equal(t, "tool: spawn failed: exec: \"pnpm\": executable file not found", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "pnpm", err.Context["command"])
	assert.True(t, stderrors.Is(err, &DomainError{Type: ErrorTypeTool}))
}

func TestMissingVariableContext(t *testing.T) {
	err := NewMissingVariableError("DATABASE_URL")
	assert.Equal(t, "DATABASE_URL", err.Context["variable"])
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestErrorCollection(t *testing.T) {
	collection := NewErrorCollection()
	assert.NoError(t, collection.ToError())
	assert.Equal(t, "no errors", collection.Error())

	collection.Add(nil)
	assert.False(t, collection.HasErrors())

	collection.Add(NewToolError("typecheck failed", nil))
	assert.Equal(t, "tool: typecheck failed", collection.Error())

	collection.Add(NewMissingVariableError("VITE_APP_ID"))
	assert.True(t, collection.HasErrors())
	assert.Contains(t, collection.Error(), "2 errors occurred")
	assert.Contains(t, collection.Error(), "VITE_APP_ID")
	assert.Error(t, collection.ToError())
}
