package treesync

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	fuzz "github.com/google/gofuzz"
)

// DiffYAML renders a human-readable diff between two YAML documents, the
// same pairing (ytbx to load, dyff to report) the teacher's own CLI diff
// output uses. It returns the rendered report and whether any leaf differs.
func DiffYAML(fromYAML, toYAML []byte) (string, bool, error) {
	dir, err := os.MkdirTemp("", "treesync-difftest")
	if err != nil {
		return "", false, err
	}
	defer os.RemoveAll(dir)

	fromPath := filepath.Join(dir, "from.yaml")
	toPath := filepath.Join(dir, "to.yaml")
	if err := os.WriteFile(fromPath, fromYAML, 0o600); err != nil {
		return "", false, err
	}
	if err := os.WriteFile(toPath, toYAML, 0o600); err != nil {
		return "", false, err
	}

	from, to, err := ytbx.LoadFiles(fromPath, toPath)
	if err != nil {
		return "", false, err
	}

	report, err := dyff.CompareInputFiles(from, to)
	if err != nil {
		return "", false, err
	}

	reportWriter := &dyff.HumanReport{
		Report:       report,
		NoTableStyle: true,
		OmitHeader:   true,
	}

	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	reportWriter.WriteReport(out)
	out.Flush()

	return buf.String(), len(report.Diffs) > 0, nil
}

// ListOp is one step of a randomly-generated operation sequence for the
// list re-tagging property test (§8 invariant 5: "the per-element
// subscription indices after op equal the elements' positions in L").
type ListOp struct {
	Kind string // "add", "insert", "remove", "move"
	A, B int
}

// GenerateListOps returns a random, length-n sequence of list operations
// driven by gofuzz instead of hand-picked cases, fuzzing only the
// integers (kept in [0,bound) and clamped by the caller against the
// list's length at apply time, since gofuzz has no notion of "valid
// index for the list as it stands after op i-1").
func GenerateListOps(seed int64, n int, bound int) []ListOp {
	f := fuzz.NewWithSeed(seed).NilChance(0).NumElements(n, n)

	kinds := []string{"add", "insert", "remove", "move"}
	ops := make([]ListOp, n)
	for i := range ops {
		var kindIdx uint8
		var a, b uint32
		f.Fuzz(&kindIdx)
		f.Fuzz(&a)
		f.Fuzz(&b)
		ops[i] = ListOp{
			Kind: kinds[int(kindIdx)%len(kinds)],
			A:    int(a) % max(bound, 1),
			B:    int(b) % max(bound, 1),
		}
	}
	return ops
}

// AssertRetagged reports an error if any element of l's retag pointers
// disagrees with its actual slice position — the core assertion behind
// §8 invariant 5.
func AssertRetagged[T Component](l *TrackedList[T]) error {
	for i := 0; i < l.Len(); i++ {
		if got := *l.items[i].idx; got != i {
			return fmt.Errorf("element at position %d carries stale index tag %d", i, got)
		}
	}
	return nil
}
