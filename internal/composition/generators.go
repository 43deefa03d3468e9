package composition

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/edison-run/edison/internal/statemachine"
)

// AgentInfo is one roster row rendered by GenerateAvailableAgents,
// grounded in the AgentRegistry dataclass the original generator reads.
type AgentInfo struct {
	Name        string
	Description string
	Tools       []string
}

// ValidatorInfo is one roster row rendered by GenerateAvailableValidators.
type ValidatorInfo struct {
	Name        string
	Description string
	Blocking    bool
}

// GenerateAvailableAgents renders the AVAILABLE_AGENTS.md roster table
// from the discovered agents content-type entries.
func GenerateAvailableAgents(agents []AgentInfo, generatedAt time.Time) string {
	sorted := append([]AgentInfo(nil), agents...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sb strings.Builder
	sb.WriteString("# Available Agents\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))
	sb.WriteString("| Name | Description | Tools |\n")
	sb.WriteString("|------|-------------|-------|\n")
	for _, a := range sorted {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", a.Name, a.Description, strings.Join(a.Tools, ", "))
	}
	return sb.String()
}

// GenerateAvailableValidators renders the AVAILABLE_VALIDATORS.md roster
// table, additionally projecting each validator's blocking/advisory
// classification.
func GenerateAvailableValidators(validators []ValidatorInfo, generatedAt time.Time) string {
	sorted := append([]ValidatorInfo(nil), validators...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sb strings.Builder
	sb.WriteString("# Available Validators\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))
	sb.WriteString("| Name | Description | Blocking |\n")
	sb.WriteString("|------|-------------|----------|\n")
	for _, v := range sorted {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", v.Name, v.Description, formatBool(v.Blocking))
	}
	return sb.String()
}

// GenerateStateMachineDoc renders a human-readable description of spec's
// states, transitions, guards and actions for operator documentation.
func GenerateStateMachineDoc(spec statemachine.MachineSpec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# State Machine: %s\n\n", spec.EntityKind)

	names := make([]string, 0, len(spec.States))
	for name := range spec.States {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("| State | Initial | Final |\n")
	sb.WriteString("|-------|---------|-------|\n")
	for _, name := range names {
		def := spec.States[name]
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", name, formatBool(def.Initial), formatBool(def.Final))
	}
	sb.WriteString("\n## Transitions\n\n")
	sb.WriteString("| From | To | Guard | Conditions | Actions |\n")
	sb.WriteString("|------|----|-------|------------|--------|\n")
	for _, from := range names {
		def := spec.States[from]
		transitions := append([]statemachine.TransitionSpec(nil), def.AllowedTransitions...)
		sort.Slice(transitions, func(i, j int) bool { return transitions[i].To < transitions[j].To })
		for _, tr := range transitions {
			guard := tr.Guard
			if guard == "" {
				guard = "-"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				from, tr.To, guard, formatConditions(tr.Conditions), formatActions(tr.Actions))
		}
	}
	return sb.String()
}

func formatBool(v bool) string {
	if v {
		return "yes"
	}
	return ""
}

func formatConditions(conditions []statemachine.ConditionSpec) string {
	if len(conditions) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(conditions))
	for _, c := range conditions {
		parts = append(parts, formatCondition(c))
	}
	return strings.Join(parts, "; ")
}

func formatCondition(c statemachine.ConditionSpec) string {
	var parts []string
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	if c.Error != "" {
		parts = append(parts, "error: "+c.Error)
	}
	if len(c.Or) > 0 {
		nested := make([]string, 0, len(c.Or))
		for _, sub := range c.Or {
			nested = append(nested, formatCondition(sub))
		}
		parts = append(parts, "("+strings.Join(nested, " OR ")+")")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func formatActions(actions []string) string {
	if len(actions) == 0 {
		return "-"
	}
	return strings.Join(actions, "; ")
}
