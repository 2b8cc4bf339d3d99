// Package llmresolve defines the optional LlmResolver pipeline stage's
// contract. The retrieved corpus has no grounded call site for an LLM SDK
// against this domain (no example repo invokes one against diff/patch
// content), so this stage ships as an interface plus a stub that resolves
// nothing; the Pipeline then marks every hunk still Pending as Failed, per
// spec.md §4.9's "(optional stub)" note. A real implementation plugs in behind the same Resolver interface
// without the Pipeline caller changing.
package llmresolve

import "context"

// Attempt is the remaining-hunks context handed to a resolver: the patch
// text still outstanding after SystemPatch, GitApply, and Difflib, plus the
// current file content each hunk would apply against.
type Attempt struct {
	FilePath       string
	RemainingPatch string
	CurrentContent string
}

// Outcome reports, per hunk number, whether the resolver produced an
// application it is confident in.
type Outcome struct {
	Resolved map[int]bool
}

// Resolver is the LlmResolver pipeline stage's contract.
type Resolver interface {
	Resolve(ctx context.Context, attempt Attempt) (Outcome, error)
}

// Stub marks every hunk as unresolved, deferring entirely to the earlier
// stages. It exists so the Pipeline can always call an LlmResolver stage
// without a nil check, per spec.md §4.9's stage list.
type Stub struct{}

// Resolve implements Resolver by resolving nothing.
func (Stub) Resolve(ctx context.Context, attempt Attempt) (Outcome, error) {
	return Outcome{Resolved: map[int]bool{}}, nil
}
