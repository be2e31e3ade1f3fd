package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydraskript-api/internal/domain/entity"
)

func TestEveryFramingPolicyRenders(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()
	vars := map[string]any{
		VarUserVars:      `{"topic":"dragons","story_bible":[{"name":"Mira"}]}`,
		VarStyleKeywords: "Whimsical,clichés",
	}

	for _, pt := range []entity.ProjectType{entity.ProjectTypeStandard, entity.ProjectTypeKids, entity.ProjectTypeColoring} {
		policy := PolicyFor(pt)
		assert.Equal(t, pt, policy.ProjectType)
		for _, id := range []PromptID{policy.Outline, policy.Chapter, policy.ImagePrompt} {
			out, err := reg.Render(ctx, id, vars)
			require.NoError(t, err, "prompt %s", id)
			assert.NotEmpty(t, out.System, "prompt %s", id)
			assert.Equal(t, `User vars (JSON): {"topic":"dragons","story_bible":[{"name":"Mira"}]}`, out.User)
		}
	}

	out, err := reg.Render(ctx, PromptRewriteV1, vars)
	require.NoError(t, err)
	assert.Contains(t, out.System, "precision editor")
}

func TestColoringImageInstructionCarriesTheme(t *testing.T) {
	reg := NewRegistry()
	policy := PolicyFor(entity.ProjectTypeColoring)
	require.True(t, policy.ThemeInInstruction)

	out, err := reg.Render(context.Background(), policy.ImagePrompt, map[string]any{
		VarUserVars:      "{}",
		VarStyleKeywords: "Calm,passive voice",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.System, "Theme: Calm,passive voice"))
}

func TestFramingDiffersOnlyInWording(t *testing.T) {
	std := PolicyFor(entity.ProjectTypeStandard)
	kids := PolicyFor(entity.ProjectTypeKids)
	assert.NotEqual(t, std.Outline, kids.Outline)
	assert.Equal(t, "page", kids.Unit)
	assert.Equal(t, std, PolicyFor("unknown"))
}

func TestUnknownPrompt(t *testing.T) {
	_, err := NewRegistry().ChatTemplate("missing")
	assert.Error(t, err)
}
