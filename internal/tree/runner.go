package tree

import "context"

// Runner executes version control commands inside a repository checkout.
// Merge-day operations stay agnostic of how the commands reach hg.
type Runner interface {
	Run(ctx context.Context, repoPath string, args ...string) error

	// Revision resolves the current revision hash of a branch head.
	Revision(ctx context.Context, repoPath, branch string) (string, error)
}
