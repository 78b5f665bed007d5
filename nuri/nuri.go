// Package nuri implements the NextGraph URI grammar (spec §6 "NURIs"): a
// parser and printer for the did:ng:... forms used to address repos,
// branches, commits, overlays and skolemized subjects, plus the
// commit-graph-name and skolem-IRI helpers the graph package builds quad
// graph names and blank-node substitutes from.
package nuri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/nextgraph-org/ng-core/ng"
)

// Kind discriminates which NURI form a parsed Nuri holds.
type Kind uint8

const (
	KindCommit Kind = iota + 1
	KindRepo
	KindBranch
	KindSkolem
)

// Nuri is a parsed did:ng:... URI (spec §6).
type Nuri struct {
	Kind    Kind
	Overlay ng.OverlayID

	// Commit is set when Kind == KindCommit.
	Commit ng.Digest

	// Repo is set when Kind == KindRepo.
	Repo ng.RepoID

	// Branch is set when Kind == KindBranch.
	Branch ng.BranchID

	// Subject is set when Kind == KindSkolem: the raw suffix after "s:".
	Subject string
}

var (
	ErrInvalidNuri = errors.New("nuri: not a valid did:ng: URI")
	ErrUnknownForm = errors.New("nuri: unrecognized did:ng: form")
)

const scheme = "did:ng:o:"

func b64(id []byte) string {
	return base64.RawURLEncoding.EncodeToString(id)
}

func unb64(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// String renders n back into its canonical did:ng:... form.
func (n Nuri) String() string {
	ov := b64(n.Overlay[:])
	switch n.Kind {
	case KindCommit:
		return fmt.Sprintf("%s%s:c:%s", scheme, ov, b64(n.Commit[:]))
	case KindRepo:
		return fmt.Sprintf("%s%s:v:%s", scheme, ov, b64(n.Repo[:]))
	case KindBranch:
		return fmt.Sprintf("%s%s:b:%s", scheme, ov, b64(n.Branch[:]))
	case KindSkolem:
		return fmt.Sprintf("%s%s:s:%s", scheme, ov, n.Subject)
	default:
		return ""
	}
}

// Parse parses a did:ng:... string into its typed form (spec §6 "A complete
// NURI parser/printer is required; the on-the-wire form is stable").
func Parse(s string) (Nuri, error) {
	if !strings.HasPrefix(s, scheme) {
		return Nuri{}, ErrInvalidNuri
	}
	rest := s[len(scheme):]
	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 {
		return Nuri{}, ErrInvalidNuri
	}
	ovBytes, err := unb64(parts[0])
	if err != nil || len(ovBytes) != ng.DigestSize {
		return Nuri{}, ErrInvalidNuri
	}
	var overlay ng.OverlayID
	copy(overlay[:], ovBytes)

	switch parts[1] {
	case "c":
		idBytes, err := unb64(parts[2])
		if err != nil || len(idBytes) != ng.DigestSize {
			return Nuri{}, ErrInvalidNuri
		}
		var id ng.Digest
		copy(id[:], idBytes)
		return Nuri{Kind: KindCommit, Overlay: overlay, Commit: id}, nil
	case "v":
		idBytes, err := unb64(parts[2])
		if err != nil || len(idBytes) != ng.DigestSize {
			return Nuri{}, ErrInvalidNuri
		}
		var id ng.RepoID
		copy(id[:], idBytes)
		return Nuri{Kind: KindRepo, Overlay: overlay, Repo: id}, nil
	case "b":
		idBytes, err := unb64(parts[2])
		if err != nil || len(idBytes) != ng.DigestSize {
			return Nuri{}, ErrInvalidNuri
		}
		var id ng.BranchID
		copy(id[:], idBytes)
		return Nuri{Kind: KindBranch, Overlay: overlay, Branch: id}, nil
	case "s":
		return Nuri{Kind: KindSkolem, Overlay: overlay, Subject: parts[2]}, nil
	default:
		return Nuri{}, ErrUnknownForm
	}
}

// CommitGraphName returns the stable IRI a commit's quads are tokenized
// under: did:ng:o:<overlay>:c:<commit_id> (spec §4.6 "Quad tokenization").
func CommitGraphName(commitID ng.Digest, overlay ng.OverlayID) string {
	return Nuri{Kind: KindCommit, Overlay: overlay, Commit: commitID}.String()
}

// RepoGraphName returns a repo's materialized "current" graph name:
// did:ng:o:<overlay>:v:<repo_id> (spec §6).
func RepoGraphName(repoID ng.RepoID, overlay ng.OverlayID) string {
	return Nuri{Kind: KindRepo, Overlay: overlay, Repo: repoID}.String()
}

// BranchName returns a branch's NURI: did:ng:o:<overlay>:b:<branch_id>.
func BranchName(branchID ng.BranchID, overlay ng.OverlayID) string {
	return Nuri{Kind: KindBranch, Overlay: overlay, Branch: branchID}.String()
}

// RepoSkolem builds a stable skolem IRI for a blank node, durable across
// writers: did:ng:o:<overlay>:s:<repo>:<peer>:<bn_unique_id> (spec §4.6
// "Blank nodes are skolemized to stable IRIs of the form
// repo-skolem(repo_id, peer_id, bn_unique_id)").
func RepoSkolem(repoID ng.RepoID, peerID ng.PubKey, bnID string, overlay ng.OverlayID) string {
	subject := fmt.Sprintf("%s:%s:%s", b64(repoID[:]), b64(peerID[:]), bnID)
	return Nuri{Kind: KindSkolem, Overlay: overlay, Subject: subject}.String()
}
