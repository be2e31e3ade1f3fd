package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowProviderContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", WorkflowFromContext(ctx))
	assert.Equal(t, "unknown", ProviderFromContext(ctx))

	ctx = WithWorkflowProvider(ctx, " generate_outline ", "gemini")
	assert.Equal(t, "generate_outline", WorkflowFromContext(ctx))
	assert.Equal(t, "gemini", ProviderFromContext(ctx))

	ctx = WithWorkflowProvider(ctx, "", "")
	assert.Equal(t, "generate_outline", WorkflowFromContext(ctx))
}
