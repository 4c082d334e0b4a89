// Package testkit hosts invariant checkers over built assembly models,
// shared by the importer's package tests.
package testkit

import (
	"fmt"

	"tlbimp/internal/metadata"
)

// CheckAssemblyInvariants runs the full invariant set on a built assembly:
// 1) type names are unique and non-empty
// 2) every defined type finished creating
// 3) slot-addressed methods within a type occupy distinct slots
// 4) property accessors belong to the declaring type and agree on dispid
// 5) events carry a handler type and both accessors
// 6) override bodies belong to the overriding type
//
// A type skipped mid-create keeps its defined skeleton, so rule 2 assumes
// an import without create-phase skips.
func CheckAssemblyInvariants(asm *metadata.Assembly) error {
	if asm == nil {
		return fmt.Errorf("nil assembly")
	}
	if err := CheckTypeNames(asm); err != nil {
		return err
	}
	for _, td := range asm.Types() {
		if td.State() != metadata.StateCreated {
			return fmt.Errorf("%s: defined but never created", td.Name)
		}
		if err := CheckSlots(td); err != nil {
			return err
		}
		if err := CheckProperties(td); err != nil {
			return err
		}
		if err := CheckEvents(td); err != nil {
			return err
		}
		if err := CheckOverrides(td); err != nil {
			return err
		}
	}
	return nil
}

// CheckTypeNames verifies that every type has a unique non-empty name.
func CheckTypeNames(asm *metadata.Assembly) error {
	seen := make(map[string]bool, len(asm.Types()))
	for _, td := range asm.Types() {
		if td.Name == "" {
			return fmt.Errorf("type with empty name")
		}
		if seen[td.Name] {
			return fmt.Errorf("duplicate type name %s", td.Name)
		}
		seen[td.Name] = true
	}
	return nil
}

// CheckSlots verifies that no two methods of td claim the same v-table
// slot. Slots are sparse on classes (copied bodies drop them), so only
// slot-addressed methods participate.
func CheckSlots(td *metadata.TypeDef) error {
	seen := make(map[int]string)
	for _, m := range td.Methods {
		if m.Slot < 0 {
			continue
		}
		if prev, ok := seen[m.Slot]; ok {
			return fmt.Errorf("%s: slot %d held by both %s and %s", td.Name, m.Slot, prev, m.Name)
		}
		seen[m.Slot] = m.Name
	}
	return nil
}

func onType(td *metadata.TypeDef, m *metadata.Method) bool {
	for _, have := range td.Methods {
		if have == m {
			return true
		}
	}
	return false
}

// CheckProperties verifies accessor wiring and dispid agreement.
func CheckProperties(td *metadata.TypeDef) error {
	for _, p := range td.Props {
		if p.Getter == nil && p.Setter == nil {
			return fmt.Errorf("%s.%s: property without accessors", td.Name, p.Name)
		}
		for _, acc := range []*metadata.Method{p.Getter, p.Setter} {
			if acc == nil {
				continue
			}
			if !onType(td, acc) {
				return fmt.Errorf("%s.%s: accessor %s is not a method of the type", td.Name, p.Name, acc.Name)
			}
			if p.DispID != nil && acc.DispID != nil && *acc.DispID != *p.DispID {
				return fmt.Errorf("%s.%s: accessor %s dispid %d disagrees with property dispid %d",
					td.Name, p.Name, acc.Name, *acc.DispID, *p.DispID)
			}
		}
	}
	return nil
}

// CheckEvents verifies the event triple: handler type, add accessor,
// remove accessor, all on the declaring type.
func CheckEvents(td *metadata.TypeDef) error {
	for _, e := range td.Events {
		if e.Type.Name == "" {
			return fmt.Errorf("%s.%s: event without a handler type", td.Name, e.Name)
		}
		if e.Add == nil || e.Remove == nil {
			return fmt.Errorf("%s.%s: event missing an accessor", td.Name, e.Name)
		}
		for _, acc := range []*metadata.Method{e.Add, e.Remove} {
			if !onType(td, acc) {
				return fmt.Errorf("%s.%s: accessor %s is not a method of the type", td.Name, e.Name, acc.Name)
			}
			if e.DispID != nil && acc.DispID != nil && *acc.DispID != *e.DispID {
				return fmt.Errorf("%s.%s: accessor %s dispid %d disagrees with event dispid %d",
					td.Name, e.Name, acc.Name, *acc.DispID, *e.DispID)
			}
		}
	}
	return nil
}

// CheckOverrides verifies that override bodies are methods of td and the
// declarations name a type.
func CheckOverrides(td *metadata.TypeDef) error {
	for _, o := range td.Overrides {
		if o.Body == nil || !onType(td, o.Body) {
			return fmt.Errorf("%s: override of %s with a foreign body", td.Name, o.Name)
		}
		if o.Decl.Name == "" {
			return fmt.Errorf("%s: override of %s without a declaring type", td.Name, o.Name)
		}
	}
	return nil
}
