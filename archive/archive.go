// Package archive keeps pruned tracking days in a bare git repository, one
// JSON file per day and one commit per archive run.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"focus-server/models"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	branch = "refs/heads/main"
	ext    = ".json"
)

var ErrDayNotArchived = errors.New("day not archived")

type Archive struct {
	mu   sync.Mutex
	repo *git.Repository
}

// Open opens the repository at dir, creating it if needed.
func Open(dir string) (*Archive, error) {
	repo, err := git.PlainOpen(dir)
	if err == nil {
		return &Archive{repo: repo}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	repo, err = git.PlainInit(dir, true)
	if err != nil {
		return nil, fmt.Errorf("failed to init archive repo: %w", err)
	}

	headRef := plumbing.NewSymbolicReference(plumbing.HEAD, branch)
	if err := repo.Storer.SetReference(headRef); err != nil {
		return nil, fmt.Errorf("failed to set HEAD: %w", err)
	}
	return &Archive{repo: repo}, nil
}

// Commit writes every day in data on top of the current tree and commits once.
// Days already archived are overwritten with the new counts.
func (a *Archive) Commit(data models.TrackingData, when time.Time) (plumbing.Hash, error) {
	if len(data) == 0 {
		return plumbing.ZeroHash, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	storer := a.repo.Storer

	parent, entries, err := a.head()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	byName := make(map[string]object.TreeEntry, len(entries)+len(data))
	for _, e := range entries {
		byName[e.Name] = e
	}

	days := make([]string, 0, len(data))
	for day, stats := range data {
		content, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("encode day %s: %w", day, err)
		}

		blob := plumbing.MemoryObject{}
		blob.SetType(plumbing.BlobObject)
		blob.SetSize(int64(len(content)))
		writer, err := blob.Writer()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		writer.Write(content)
		writer.Close()

		hash, err := storer.SetEncodedObject(&blob)
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to store blob for %s: %w", day, err)
		}
		name := day + ext
		byName[name] = object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: hash}
		days = append(days, day)
	}
	sort.Strings(days)

	tree := object.Tree{}
	for _, e := range byName {
		tree.Entries = append(tree.Entries, e)
	}
	sort.Slice(tree.Entries, func(i, j int) bool { return tree.Entries[i].Name < tree.Entries[j].Name })

	treeObj := plumbing.MemoryObject{}
	if err := tree.Encode(&treeObj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}
	treeHash, err := storer.SetEncodedObject(&treeObj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}

	sig := object.Signature{Name: "Focus", Email: "focus@localhost", When: when}
	commit := object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   fmt.Sprintf("Archive %d tracking day(s): %s", len(days), strings.Join(days, ", ")),
		TreeHash:  treeHash,
	}
	if !parent.IsZero() {
		commit.ParentHashes = []plumbing.Hash{parent}
	}

	commitObj := plumbing.MemoryObject{}
	if err := commit.Encode(&commitObj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode commit: %w", err)
	}
	commitHash, err := storer.SetEncodedObject(&commitObj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store commit: %w", err)
	}

	ref := plumbing.NewHashReference(plumbing.ReferenceName(branch), commitHash)
	if err := storer.SetReference(ref); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to set %s: %w", branch, err)
	}
	return commitHash, nil
}

// Day reads one archived day from the latest commit.
func (a *Archive) Day(day string) (models.TrackingDay, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tree, err := a.headTree()
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, ErrDayNotArchived
	}

	file, err := tree.File(day + ext)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, ErrDayNotArchived
	}
	if err != nil {
		return nil, err
	}
	content, err := file.Contents()
	if err != nil {
		return nil, err
	}

	out := models.TrackingDay{}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("decode day %s: %w", day, err)
	}
	return out, nil
}

// Days lists archived day keys in order.
func (a *Archive) Days() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, entries, err := a.head()
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, len(entries))
	for _, e := range entries {
		days = append(days, strings.TrimSuffix(e.Name, ext))
	}
	return days, nil
}

// Commits counts the commits reachable from the branch head.
func (a *Archive) Commits() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ref, err := a.repo.Reference(plumbing.ReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n := 0
	hash := ref.Hash()
	for !hash.IsZero() {
		commit, err := a.repo.CommitObject(hash)
		if err != nil {
			return n, err
		}
		n++
		if len(commit.ParentHashes) == 0 {
			break
		}
		hash = commit.ParentHashes[0]
	}
	return n, nil
}

func (a *Archive) head() (plumbing.Hash, []object.TreeEntry, error) {
	ref, err := a.repo.Reference(plumbing.ReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil, nil
	}
	if err != nil {
		return plumbing.ZeroHash, nil, fmt.Errorf("failed to read %s: %w", branch, err)
	}
	commit, err := a.repo.CommitObject(ref.Hash())
	if err != nil {
		return plumbing.ZeroHash, nil, fmt.Errorf("failed to get commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return plumbing.ZeroHash, nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return ref.Hash(), tree.Entries, nil
}

func (a *Archive) headTree() (*object.Tree, error) {
	ref, err := a.repo.Reference(plumbing.ReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	commit, err := a.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}
