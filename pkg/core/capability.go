package core

// ToolDescriptor names one tool a responder exposes.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CapabilityDescriptor describes what one responder can do.
type CapabilityDescriptor struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Capabilities []string         `json:"capabilities"`
	Tools        []ToolDescriptor `json:"tools"`
}
