package main

import (
	"context"
	"flag"
	"log"

	"github.com/willdurand/scriptworker-scripts/internal/tree"
)

func main() {
	var flavor, repoPath string
	flag.StringVar(&flavor, "flavor", "", "merge flavor (e.g. central_to_beta)")
	flag.StringVar(&repoPath, "repo", "", "path to the repository checkout")
	flag.Parse()

	if flavor == "" || repoPath == "" {
		log.Fatalf("both -flavor and -repo are required")
	}

	runner := &tree.HgRunner{}

	revisions, err := tree.Merge(context.Background(), runner, flavor, repoPath)
	if err != nil {
		log.Fatalf("merge failed: %v", err)
	}

	for _, rev := range revisions {
		log.Printf("pushed head %s at %s", rev.Repo, rev.Revision)
	}
	log.Println("merge completed")
}
