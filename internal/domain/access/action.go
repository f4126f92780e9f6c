package access

import "fmt"

// Action is one of the closed set of operations a permission can grant.
// The set is fixed: every action carries a stable bit index used by the
// bitfield cache representation, so new actions must be appended, never
// reordered.
type Action string

const (
	ActionView       Action = "view"
	ActionViewAny    Action = "view_any"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionDeleteAny  Action = "delete_any"
	ActionRestore    Action = "restore"
	ActionExport     Action = "export"
	ActionImport     Action = "import"
	ActionBulkEdit   Action = "bulk_edit"
	ActionBulkDelete Action = "bulk_delete"
	ActionManage     Action = "manage"
)

// actionBits assigns each action its bit index. Order is append-only.
var actionBits = map[Action]uint{
	ActionView:       0,
	ActionViewAny:    1,
	ActionCreate:     2,
	ActionUpdate:     3,
	ActionDelete:     4,
	ActionDeleteAny:  5,
	ActionRestore:    6,
	ActionExport:     7,
	ActionImport:     8,
	ActionBulkEdit:   9,
	ActionBulkDelete: 10,
	ActionManage:     11,
}

func (a Action) String() string {
	return string(a)
}

func (a Action) IsValid() bool {
	_, ok := actionBits[a]
	return ok
}

// Bit returns the action's index in the bitfield representation.
func (a Action) Bit() (uint, bool) {
	bit, ok := actionBits[a]
	return bit, ok
}

func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// Actions returns the closed action set in bit order.
func Actions() []Action {
	out := make([]Action, len(actionBits))
	for a, bit := range actionBits {
		out[bit] = a
	}
	return out
}

// ActionSet is a bitfield over the closed action enumeration, one bit per
// action. Sixteen bits leaves headroom over the current twelve actions.
type ActionSet uint16

func (s ActionSet) Has(a Action) bool {
	bit, ok := a.Bit()
	if !ok {
		return false
	}
	return s&(1<<bit) != 0
}

func (s ActionSet) With(a Action) ActionSet {
	bit, ok := a.Bit()
	if !ok {
		return s
	}
	return s | (1 << bit)
}

func (s ActionSet) Without(a Action) ActionSet {
	bit, ok := a.Bit()
	if !ok {
		return s
	}
	return s &^ (1 << bit)
}
