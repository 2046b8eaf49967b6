package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "◉" // Step completed successfully
	SymbolFail     = "✕" // Step failed
	SymbolPending  = "◇" // Step not yet started
	SymbolProgress = "◆" // Step in progress
	SymbolComplete = "●" // Step done without changes
	SymbolSkipped  = "⊖" // Step skipped
	SymbolWarning  = "⚠" // Something worth a look
)
