package trace

import "strings"

// Normalize turns a raw rule name into the label used as the node identity
// and display text. Underscores become line breaks and the fused word
// "visualresponse" is split in two, so multi-word rule names wrap when drawn.
//
// Normalize is deterministic: the same raw name always yields the same label.
func Normalize(rule string) string {
	label := strings.ReplaceAll(rule, "_", "\n")
	return strings.ReplaceAll(label, "visualresponse", "visual\nresponse")
}
