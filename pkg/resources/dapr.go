package resources

// DaprMetadata ties a sidecar to the application it serves.
type DaprMetadata struct {
	Application string   `json:"application,omitempty"`
	AppID       string   `json:"appId,omitempty"`
	Components  []string `json:"components,omitempty"`
}

// DaprResource is a Dapr sidecar attached to another resource.
type DaprResource struct {
	Base
	Metadata *DaprMetadata `json:"dapr,omitempty"`
}

// DaprComponentSpec describes a Dapr building block.
type DaprComponentSpec struct {
	Type     string            `json:"type,omitempty"`
	Version  string            `json:"version,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DaprComponentResource is a Dapr component referenced by sidecars.
type DaprComponentResource struct {
	Base
	Component *DaprComponentSpec `json:"daprComponent,omitempty"`
}
