// Command ngverify smoke-runs the verifier against a directory of commits:
// a flat set of block files plus a manifest describing which commits to
// feed through Verifier.VerifyCommit, and in what order.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nextgraph-org/ng-core/block"
	"github.com/nextgraph-org/ng-core/commit"
	"github.com/nextgraph-org/ng-core/ng"
	"github.com/nextgraph-org/ng-core/verifier"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "ngverify",
		Short: "drive the commit-graph verifier against a directory of commits",
	}
	root.AddCommand(ingestCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// manifestEntry names one commit to ingest: its (repo, branch) routing and
// the ObjectRef of the commit itself, hex-encoded.
type manifestEntry struct {
	RepoID    string `json:"repo_id"`
	BranchID  string `json:"branch_id"`
	CommitID  string `json:"commit_id"`
	CommitKey string `json:"commit_key"`
}

func ingestCmd() *cobra.Command {
	var blocksDir string
	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "ingest every commit listed in <dir>/manifest.json, in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if blocksDir == "" {
				blocksDir = filepath.Join(dir, "blocks")
			}
			return runIngest(cmd.Context(), dir, blocksDir, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&blocksDir, "blocks", "", "directory of *.blk block files (default: <dir>/blocks)")
	return cmd
}

func runIngest(ctx context.Context, dir, blocksDir string, out io.Writer) error {
	entries, err := loadManifest(dir)
	if err != nil {
		return err
	}

	store := block.NewMemStorage(len(entries) * 4)
	if err := loadBlocks(ctx, blocksDir, store); err != nil {
		return err
	}

	v := verifier.New()
	for i, e := range entries {
		repoDigest, err := decodeDigest(e.RepoID)
		if err != nil {
			return err
		}
		branchDigest, err := decodeDigest(e.BranchID)
		if err != nil {
			return err
		}
		commitID, err := decodeDigest(e.CommitID)
		if err != nil {
			return err
		}
		commitKey, err := decodeSymKey(e.CommitKey)
		if err != nil {
			return err
		}
		repoID := ng.RepoID(repoDigest)
		branchID := ng.BranchID(branchDigest)

		c, err := commit.Load(ctx, ng.ObjectRef{ID: commitID, Key: commitKey}, store, ng.OverlayID(repoID))
		if err != nil {
			return fmt.Errorf("ngverify: entry %d: loading commit %s: %w", i, e.CommitID, err)
		}
		patch, err := v.VerifyCommit(ctx, c, branchID, repoID, store)
		if err != nil {
			fmt.Fprintf(out, "entry %d: commit %s rejected: %v\n", i, e.CommitID, err)
			continue
		}
		fmt.Fprintf(out, "entry %d: commit %s applied", i, e.CommitID)
		switch {
		case patch.Graph != nil:
			fmt.Fprintf(out, " (graph patch: %d inserts, %d removes)\n", len(patch.Graph.Inserts), len(patch.Graph.Removes))
		case patch.Discrete != nil:
			fmt.Fprintf(out, " (discrete patch: %d bytes)\n", len(patch.Discrete.Update))
		case patch.Other != nil:
			fmt.Fprintf(out, " (%T)\n", patch.Other)
		default:
			fmt.Fprintln(out)
		}
	}
	return nil
}

func loadManifest(dir string) ([]manifestEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, err
	}
	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("ngverify: parsing manifest.json: %w", err)
	}
	return entries, nil
}

func loadBlocks(ctx context.Context, blocksDir string, store *block.MemStorage) error {
	files, err := os.ReadDir(blocksDir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".blk" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(blocksDir, f.Name()))
		if err != nil {
			return err
		}
		blk, err := block.Decode(data)
		if err != nil {
			return fmt.Errorf("ngverify: decoding %s: %w", f.Name(), err)
		}
		if _, err := store.Put(ctx, ng.OverlayID{}, blk, true); err != nil {
			return fmt.Errorf("ngverify: storing %s: %w", f.Name(), err)
		}
	}
	return nil
}

func decodeDigest(s string) (ng.Digest, error) {
	var d ng.Digest
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(d) {
		return d, fmt.Errorf("ngverify: %q is not a 32-byte hex digest", s)
	}
	copy(d[:], raw)
	return d, nil
}

func decodeSymKey(s string) (ng.SymKey, error) {
	var k ng.SymKey
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(k) {
		return k, fmt.Errorf("ngverify: %q is not a 32-byte hex key", s)
	}
	copy(k[:], raw)
	return k, nil
}
