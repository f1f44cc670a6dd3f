package ir

import "fmt"

// Snapshot renders p as canonical-JSON-ready data:
//
//	{"blocks":[{"address":"0x1000","statements":["eax = 0x1:32", ...]}, ...],
//	 "ir_version":"1"}
//
// n names registers and may be nil.
func Snapshot(p *Program, n Namer) map[string]any {
	blocks := make([]any, 0, len(p.BasicBlocks()))
	for _, b := range p.BasicBlocks() {
		stmts := make([]any, 0, b.Len())
		for _, s := range b.Statements() {
			stmts = append(stmts, FormatStatement(s, n))
		}
		blocks = append(blocks, map[string]any{
			"address":    fmt.Sprintf("0x%x", b.Address()),
			"statements": stmts,
		})
	}
	return map[string]any{
		"ir_version": IRVersion,
		"blocks":     blocks,
	}
}
