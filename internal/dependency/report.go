package dependency

import (
	"fmt"
	"strings"

	"github.com/tbracht/weft/internal/kernel"
)

// ReportDependencies renders every statement's happens-after edges as
// text, one block per statement in program order. A statement with no
// edges reports "nothing"; each edge reports the target, the variable
// when the edge is variable-specific, and the instance relation. The
// kernel is not modified.
func ReportDependencies(k kernel.Kernel) string {
	var b strings.Builder
	for _, s := range k.Statements {
		fmt.Fprintf(&b, "%s depends on\n", s.ID)
		if len(s.HappensAfter) == 0 {
			b.WriteString("nothing\n")
			continue
		}
		for _, key := range s.EdgeKeys() {
			ha := s.HappensAfter[key]
			if ha.Variable != "" {
				fmt.Fprintf(&b, "%s at variable '%s' with relation\n", key.Target, ha.Variable)
			} else {
				fmt.Fprintf(&b, "%s with relation\n", key.Target)
			}
			fmt.Fprintf(&b, "%s\n", ha.Instances)
		}
	}
	return b.String()
}
