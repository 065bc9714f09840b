package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/access"
	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/registry"
)

// modelView is a descriptor annotated for the calling user.
type modelView struct {
	registry.ModelDescriptor
	Allowed             bool   `json:"allowed"`
	Reason              string `json:"reason,omitempty"`
	AcceptedUploadTypes string `json:"acceptedUploadTypes"`
}

type modelList struct {
	Object string      `json:"object"`
	Data   []modelView `json:"data"`
}

type ModelsHandler struct {
	registry *registry.Registry
	access   *access.Controller
}

func NewModelsHandler(reg *registry.Registry, ctrl *access.Controller) *ModelsHandler {
	return &ModelsHandler{registry: reg, access: ctrl}
}

// HandleList handles GET /v1/models. Models restricted in the caller's
// region are left out.
func (h *ModelsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ent := EntitlementFrom(r.Context())
	descs := h.access.FilteredModels(ent.CountryCode)

	out := modelList{Object: "list", Data: make([]modelView, 0, len(descs))}
	for _, d := range descs {
		out.Data = append(out.Data, h.view(d, ent))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /v1/models/{id}
func (h *ModelsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.registry.GetModel(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(d, EntitlementFrom(r.Context())))
}

func (h *ModelsHandler) view(d registry.ModelDescriptor, ent access.Entitlement) modelView {
	decision := h.access.CanUse(d.ID, ent)
	return modelView{
		ModelDescriptor:     d,
		Allowed:             decision.Allowed,
		Reason:              decision.Reason,
		AcceptedUploadTypes: h.access.AcceptedUploadTypes(d.ID, ent),
	}
}
