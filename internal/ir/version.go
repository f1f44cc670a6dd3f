package ir

// Version constants for the IR snapshot format and the analyzer.
const (
	// IRVersion is the IR snapshot schema version.
	IRVersion = "1"

	// AnalyzerVersion is the archpass analyzer version.
	AnalyzerVersion = "0.1.0"
)
