package agents

import (
	"errors"
	"fmt"

	"personachat/internal/models"
)

var ErrInvalidUpdate = errors.New("invalid agent update")

// Update is a partial change to an agent. Nil fields are left untouched.
type Update struct {
	Name             *string
	Role             *string
	Tagline          *string
	Description      *string
	TVReference      *string
	Model            *string
	Temperature      *float64
	MaxTokens        *int
	Tools            []models.Tool
	Capabilities     []models.Capability
	KnowledgeSources []string
	WebAccess        *bool
}

func (u Update) Validate() error {
	if u.Temperature != nil && (*u.Temperature < 0 || *u.Temperature > 1) {
		return fmt.Errorf("%w: temperature %.2f outside [0,1]", ErrInvalidUpdate, *u.Temperature)
	}
	if u.MaxTokens != nil && *u.MaxTokens < 0 {
		return fmt.Errorf("%w: negative max tokens", ErrInvalidUpdate)
	}
	if u.Model != nil && *u.Model == "" {
		return fmt.Errorf("%w: empty model", ErrInvalidUpdate)
	}
	return nil
}

// Apply merges u into a copy of a.
func Apply(a models.Agent, u Update) models.Agent {
	out := Clone(a)
	setString(&out.Name, u.Name)
	setString(&out.Role, u.Role)
	setString(&out.Tagline, u.Tagline)
	setString(&out.Description, u.Description)
	setString(&out.TVReference, u.TVReference)
	setString(&out.ModelConfig.Model, u.Model)
	if u.Temperature != nil {
		out.ModelConfig.Temperature = models.Float(*u.Temperature)
	}
	if u.MaxTokens != nil {
		out.ModelConfig.MaxTokens = *u.MaxTokens
	}
	if u.Tools != nil {
		out.Tools = append([]models.Tool(nil), u.Tools...)
	}
	if u.Capabilities != nil {
		out.Capabilities = append([]models.Capability(nil), u.Capabilities...)
	}
	if u.KnowledgeSources != nil {
		out.KnowledgeSources = append([]string(nil), u.KnowledgeSources...)
	}
	if u.WebAccess != nil {
		out.WebAccess = *u.WebAccess
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
