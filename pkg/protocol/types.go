// Package protocol defines the request and response types of the stencil
// daemon's JSON-RPC interface, shared by the server and programmatic clients.
package protocol

type ComposeParams struct {
	Project       string            `json:"project"`
	Target        string            `json:"target"`
	Features      []string          `json:"features"`
	Variables     map[string]string `json:"variables,omitempty"`
	AllowExisting bool              `json:"allowExisting,omitempty"`
}

type ComposeResult struct {
	Target            string `json:"target"`
	FilesCopied       int    `json:"filesCopied"`
	ModuleFiles       int    `json:"moduleFiles"`
	InjectionsApplied int    `json:"injectionsApplied"`
	InjectionsSkipped int    `json:"injectionsSkipped"`
	DurationMS        int64  `json:"durationMs"`
}

type FeatureInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type FeaturesResult struct {
	Features []FeatureInfo `json:"features"`
}

type StatusResult struct {
	UptimeSeconds int64 `json:"uptimeSeconds"`
	FeatureCount  int   `json:"featureCount"`
}
