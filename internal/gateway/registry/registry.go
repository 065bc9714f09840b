package registry

import (
	"errors"
	"fmt"
)

// ErrModelNotFound is returned for ids missing from the registry.
var ErrModelNotFound = errors.New("model not found")

// DefaultMaxOutputTokens applies to ids the registry does not know.
const DefaultMaxOutputTokens = 8000

// GenerationParams are optional sampling defaults for a model. Nil fields
// leave the provider default in place.
type GenerationParams struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	TopP             *float32 `json:"topP,omitempty"`
	TopK             *int     `json:"topK,omitempty"`
	MinP             *float32 `json:"minP,omitempty"`
	FrequencyPenalty *float32 `json:"frequencyPenalty,omitempty"`
}

func (p GenerationParams) clone() GenerationParams {
	return GenerationParams{
		Temperature:      cloneFloat(p.Temperature),
		TopP:             cloneFloat(p.TopP),
		TopK:             cloneInt(p.TopK),
		MinP:             cloneFloat(p.MinP),
		FrequencyPenalty: cloneFloat(p.FrequencyPenalty),
	}
}

func (p GenerationParams) validate() error {
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
		return fmt.Errorf("temperature %v outside [0, 2]", *p.Temperature)
	}
	if p.TopP != nil && (*p.TopP <= 0 || *p.TopP > 1) {
		return fmt.Errorf("topP %v outside (0, 1]", *p.TopP)
	}
	if p.TopK != nil && *p.TopK <= 0 {
		return fmt.Errorf("topK %d must be positive", *p.TopK)
	}
	if p.MinP != nil && (*p.MinP < 0 || *p.MinP > 1) {
		return fmt.Errorf("minP %v outside [0, 1]", *p.MinP)
	}
	if p.FrequencyPenalty != nil && (*p.FrequencyPenalty < -2 || *p.FrequencyPenalty > 2) {
		return fmt.Errorf("frequencyPenalty %v outside [-2, 2]", *p.FrequencyPenalty)
	}
	return nil
}

// ModelDescriptor is the static metadata for one selectable model
type ModelDescriptor struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	// Family is the vendor that trained the model, used for region gating.
	Family string `json:"family"`

	SupportsVision    bool `json:"supportsVision"`
	SupportsPdf       bool `json:"supportsPdf"`
	SupportsReasoning bool `json:"supportsReasoning"`
	IsExperimental    bool `json:"isExperimental"`

	RequiresAuth         bool `json:"requiresAuth"`
	RequiresSubscription bool `json:"requiresSubscription"`
	FreeUnlimited        bool `json:"freeUnlimited"`

	MaxOutputTokens int              `json:"maxOutputTokens"`
	Params          GenerationParams `json:"params"`

	Extreme bool `json:"extreme,omitempty"`
	Fast    bool `json:"fast,omitempty"`
	IsNew   bool `json:"isNew,omitempty"`
}

func (d ModelDescriptor) clone() ModelDescriptor {
	d.Params = d.Params.clone()
	return d
}

// Registry is an ordered, read-only model catalogue. It is safe for
// concurrent use because nothing mutates it after New.
type Registry struct {
	models []ModelDescriptor
	index  map[string]int
}

// New builds a registry preserving declaration order.
func New(models ...ModelDescriptor) (*Registry, error) {
	r := &Registry{
		models: make([]ModelDescriptor, 0, len(models)),
		index:  make(map[string]int, len(models)),
	}
	for _, m := range models {
		if m.ID == "" {
			return nil, errors.New("registry: model with empty id")
		}
		if _, dup := r.index[m.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate model id %q", m.ID)
		}
		if m.MaxOutputTokens <= 0 {
			return nil, fmt.Errorf("registry: model %q: maxOutputTokens must be positive", m.ID)
		}
		if err := m.Params.validate(); err != nil {
			return nil, fmt.Errorf("registry: model %q: %w", m.ID, err)
		}
		r.index[m.ID] = len(r.models)
		r.models = append(r.models, m.clone())
	}
	return r, nil
}

// MustNew is New for static catalogues.
func MustNew(models ...ModelDescriptor) *Registry {
	r, err := New(models...)
	if err != nil {
		panic(err)
	}
	return r
}

// ListModels returns every descriptor in declaration order.
func (r *Registry) ListModels() []ModelDescriptor {
	out := make([]ModelDescriptor, len(r.models))
	for i, m := range r.models {
		out[i] = m.clone()
	}
	return out
}

// GetModel looks up a descriptor by id.
func (r *Registry) GetModel(id string) (ModelDescriptor, error) {
	i, ok := r.index[id]
	if !ok {
		return ModelDescriptor{}, fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	return r.models[i].clone(), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.models)
}

// ExtremeModels returns the ids usable in extreme search mode.
func (r *Registry) ExtremeModels() []string {
	var ids []string
	for _, m := range r.models {
		if m.Extreme {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// MaxOutputTokens returns the output cap for id, or DefaultMaxOutputTokens.
func (r *Registry) MaxOutputTokens(id string) int {
	if i, ok := r.index[id]; ok {
		return r.models[i].MaxOutputTokens
	}
	return DefaultMaxOutputTokens
}

func cloneFloat(v *float32) *float32 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
