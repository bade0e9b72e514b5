package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personachat/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	list := Default()
	require.Len(t, list, 5)

	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
		assert.NotEmpty(t, a.Name)
		assert.NotEmpty(t, a.ModelConfig.Model)
		require.NotNil(t, a.ModelConfig.Temperature)
		assert.GreaterOrEqual(t, *a.ModelConfig.Temperature, 0.0)
		assert.LessOrEqual(t, *a.ModelConfig.Temperature, 1.0)
		assert.NotEmpty(t, a.Tools)
	}
	assert.Equal(t, []string{"better-call-saul", "sheldon-gpt", "wolf-of-wall-street", "jarvis", "q"}, ids)
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	first := Default()
	first[0].Tools[0].Enabled = false
	first[0].KnowledgeSources[0] = "changed"

	second := Default()
	assert.True(t, second[0].Tools[0].Enabled)
	assert.Equal(t, "Legal databases", second[0].KnowledgeSources[0])
}

func TestSharedCapabilities(t *testing.T) {
	list := Default()
	saul, _, _ := Find(list, "better-call-saul")
	sheldon, _, _ := Find(list, "sheldon-gpt")
	assert.Contains(t, saul.Capabilities, CapabilityCitations)
	assert.Contains(t, sheldon.Capabilities, CapabilityCitations)
}

func TestFind(t *testing.T) {
	list := Default()
	a, idx, ok := Find(list, "q")
	require.True(t, ok)
	assert.Equal(t, 4, idx)
	assert.Equal(t, "Q", a.Name)

	_, idx, ok = Find(list, "nobody")
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestApply(t *testing.T) {
	base, _, _ := Find(Default(), "jarvis")

	t.Run("nil fields unchanged", func(t *testing.T) {
		out := Apply(base, Update{})
		assert.Equal(t, base, out)
	})

	t.Run("partial merge", func(t *testing.T) {
		temp := 0.1
		name := "J.A.R.V.I.S."
		web := false
		out := Apply(base, Update{Name: &name, Temperature: &temp, WebAccess: &web})
		assert.Equal(t, name, out.Name)
		require.NotNil(t, out.ModelConfig.Temperature)
		assert.Equal(t, 0.1, *out.ModelConfig.Temperature)
		temp = 0.9
		assert.Equal(t, 0.1, *out.ModelConfig.Temperature, "update value is copied")
		assert.Equal(t, base.ModelConfig.Model, out.ModelConfig.Model)
		assert.False(t, out.WebAccess)
		assert.Equal(t, base.Tools, out.Tools)
	})

	t.Run("zero temperature is kept", func(t *testing.T) {
		zero := 0.0
		out := Apply(base, Update{Temperature: &zero})
		require.NotNil(t, out.ModelConfig.Temperature)
		assert.Equal(t, 0.0, *out.ModelConfig.Temperature)
	})

	t.Run("clone does not share temperature", func(t *testing.T) {
		cp := Clone(base)
		*cp.ModelConfig.Temperature = 0.99
		assert.NotEqual(t, 0.99, *base.ModelConfig.Temperature)
	})

	t.Run("replacing tools does not alias", func(t *testing.T) {
		tools := []models.Tool{{ID: "x", Name: "X", Enabled: true}}
		out := Apply(base, Update{Tools: tools})
		tools[0].Name = "mutated"
		assert.Equal(t, "X", out.Tools[0].Name)
	})
}

func TestUpdateValidate(t *testing.T) {
	bad := 1.5
	assert.ErrorIs(t, Update{Temperature: &bad}.Validate(), ErrInvalidUpdate)

	neg := -1
	assert.ErrorIs(t, Update{MaxTokens: &neg}.Validate(), ErrInvalidUpdate)

	empty := ""
	assert.ErrorIs(t, Update{Model: &empty}.Validate(), ErrInvalidUpdate)

	ok := 0.4
	assert.NoError(t, Update{Temperature: &ok}.Validate())
}
