package domain

// AgentResult is the value an agent backend hands back. It is one of
// TextResult, MappingResult, SequenceResult or WrapperResult.
type AgentResult interface {
	agentResult()
}

// TextResult is plain text output
type TextResult string

// MappingResult is output that is already a JSON object
type MappingResult map[string]any

// SequenceResult is output that is already a JSON array
type SequenceResult []any

// WrapperResult exposes zero or more accessors over a framework-specific
// output object. A nil accessor is not exposed. Accessors may fail.
type WrapperResult struct {
	Structured func() (any, error)
	Raw        func() (string, error)
	AsMap      func() (map[string]any, error)
}

func (TextResult) agentResult()     {}
func (MappingResult) agentResult()  {}
func (SequenceResult) agentResult() {}
func (WrapperResult) agentResult()  {}

// AgentTask is a single role/goal/task prompt for an agent backend
type AgentTask struct {
	Name           string
	Role           string
	Goal           string
	Backstory      string
	Description    string
	ExpectedOutput string
	// Context is serialized as JSON and appended to the task description
	Context any
}
