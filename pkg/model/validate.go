// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package model

import "fmt"

// Validate checks the Symbol invariants: non-empty name/qualified_name, and
// end_line >= start_line when both are present.
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("symbol name cannot be empty")
	}
	if s.QualifiedName == "" {
		return fmt.Errorf("symbol qualified_name cannot be empty")
	}
	if s.StartLine != nil && s.EndLine != nil && *s.EndLine < *s.StartLine {
		return fmt.Errorf("symbol %q: end_line (%d) must be >= start_line (%d)", s.QualifiedName, *s.EndLine, *s.StartLine)
	}
	return nil
}

// Validate checks the Reference invariant that source/target addressing
// fields are always populated, since target_symbol_id may remain unresolved.
func (r *Reference) Validate() error {
	if r.SourceFilePath == "" || r.SourceSymbolName == "" {
		return fmt.Errorf("reference missing source addressing fields")
	}
	if r.TargetFilePath == "" || r.TargetSymbolName == "" {
		return fmt.Errorf("reference missing target addressing fields")
	}
	return nil
}

// Validate checks the ConfirmedEntryPoint invariants.
func (c *ConfirmedEntryPoint) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("confirmed entry point name cannot be empty")
	}
	if c.Description == "" {
		return fmt.Errorf("confirmed entry point description cannot be empty")
	}
	if c.AIConfidence < 0 || c.AIConfidence > 1 {
		return fmt.Errorf("ai_confidence must be in [0,1], got %v", c.AIConfidence)
	}
	return nil
}

// Validate checks the EntryPointFlow invariants: at least one step, and
// iterations_completed in [1,4].
func (f *EntryPointFlow) Validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q must have at least one step", f.FlowName)
	}
	if f.IterationsCompleted < 1 || f.IterationsCompleted > 4 {
		return fmt.Errorf("iterations_completed must be in [1,4], got %d", f.IterationsCompleted)
	}
	return nil
}
