package core

// RoleStatus is the status entry reported for one responder.
type RoleStatus struct {
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
	Initialized  bool     `json:"initialized"`
}

// OrchestratorStatus summarizes the orchestrator's own state.
type OrchestratorStatus struct {
	Initialized    bool `json:"initialized"`
	ActiveRequests int  `json:"active_requests"`
	TotalRequests  int  `json:"total_requests"`
}

// StatusReport is the read-only status snapshot of the whole system.
type StatusReport struct {
	Orchestrator OrchestratorStatus  `json:"orchestrator"`
	Agents       map[Role]RoleStatus `json:"agents"`
}
