package kernel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// leaves room for algorithm migration.
const (
	DomainKernel   = "weft/kernel/v1"
	DomainAnalysis = "weft/analysis/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null byte keeps domain and payload
// from running together.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content-addressed identity of the kernel structure:
// name, parameters, assumptions, domains and statements, but not
// happens-after edges. Two kernels describing the same program hash
// equal regardless of analysis state.
func (k Kernel) Hash() (string, error) {
	domains := make([]any, len(k.Domains))
	for i, d := range k.Domains {
		domains[i] = map[string]any{
			"inames": stringsToAny(d.Inames),
			"set":    d.Set.String(),
		}
	}
	statements := make([]any, len(k.Statements))
	for i, s := range k.Statements {
		statements[i] = map[string]any{
			"id":         s.ID,
			"assignee":   s.Assignee.String(),
			"expression": s.Expression.String(),
			"within":     stringsToAny(s.Within.Names()),
		}
	}
	doc := map[string]any{
		"name":        k.Name,
		"parameters":  stringsToAny(k.Parameters),
		"assumptions": k.Assumptions.String(),
		"domains":     domains,
		"statements":  statements,
	}
	canonical, err := canonicalJSON(doc)
	if err != nil {
		return "", fmt.Errorf("kernel hash: %w", err)
	}
	return hashWithDomain(DomainKernel, canonical), nil
}

// AnalysisHash returns the content-addressed identity of the computed
// happens-after edges across all statements, in the canonical edge order.
func (k Kernel) AnalysisHash() (string, error) {
	var edges []any
	for _, s := range k.Statements {
		for _, key := range s.EdgeKeys() {
			ha := s.HappensAfter[key]
			edges = append(edges, map[string]any{
				"source":    s.ID,
				"target":    key.Target,
				"variable":  key.Variable,
				"kind":      string(ha.Kind),
				"instances": ha.Instances.String(),
			})
		}
	}
	doc := map[string]any{"edges": edges}
	canonical, err := canonicalJSON(doc)
	if err != nil {
		return "", fmt.Errorf("analysis hash: %w", err)
	}
	return hashWithDomain(DomainAnalysis, canonical), nil
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
