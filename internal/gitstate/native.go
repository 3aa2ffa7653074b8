package gitstate

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// nativeBackend reads repository metadata with go-git.
type nativeBackend struct{}

// NewNativeBackend creates a Backend that reads the metadata store directly.
func NewNativeBackend() Backend {
	return nativeBackend{}
}

// Name implements Backend.
func (nativeBackend) Name() string {
	return BackendNative
}

// Open implements Backend.
func (nativeBackend) Open(_ context.Context, dir string) (Repository, error) {
	handle, err := locate(dir)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(handle.Root, &git.PlainOpenOptions{
		EnableDotGitCommonDir: true,
	})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %w", ErrNotRepository, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	return &nativeRepository{handle: handle, repo: repo}, nil
}

type nativeRepository struct {
	handle Handle
	repo   *git.Repository
}

// Handle implements Repository.
func (r *nativeRepository) Handle() Handle {
	return r.handle
}

// ConfigValue implements Repository.
func (r *nativeRepository) ConfigValue(_ context.Context, key string) (string, bool, error) {
	section, subsection, name, err := splitConfigKey(key)
	if err != nil {
		return "", false, err
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	if !cfg.Raw.HasSection(section) {
		return "", false, nil
	}

	var value string
	if subsection != "" {
		sec := cfg.Raw.Section(section)
		if !sec.HasSubsection(subsection) {
			return "", false, nil
		}
		value = sec.Subsection(subsection).Option(name)
	} else {
		value = cfg.Raw.Section(section).Option(name)
	}

	return value, value != "", nil
}

// Head implements Repository.
func (r *nativeRepository) Head(_ context.Context) (Head, error) {
	ref, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return Head{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	if ref.Type() != plumbing.SymbolicReference {
		return Head{Hash: ref.Hash().String()}, nil
	}

	head := Head{Branch: ref.Target().Short()}

	resolved, err := r.repo.Reference(ref.Target(), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Unborn branch
		return head, nil
	}
	if err != nil {
		return Head{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	head.Hash = resolved.Hash().String()
	return head, nil
}

// TagsAt implements Repository.
func (r *nativeRepository) TagsAt(_ context.Context, hash string) ([]string, error) {
	tags, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	var names []string
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()

		// Annotated tags are peeled to their commit
		if tag, tagErr := r.repo.TagObject(target); tagErr == nil {
			commit, commitErr := tag.Commit()
			if commitErr != nil {
				return nil
			}
			target = commit.Hash
		}

		if target.String() == hash {
			names = append(names, ref.Name().Short())
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	slices.Sort(names)
	return names, nil
}

// Index implements Repository.
func (r *nativeRepository) Index(_ context.Context) ([]Entry, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	entries := make([]Entry, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		entries = append(entries, Entry{
			Path:  e.Name,
			Hash:  e.Hash.String(),
			Mode:  Mode(e.Mode),
			Stage: int(e.Stage),
		})
	}

	return entries, nil
}

// Tree implements Repository.
func (r *nativeRepository) Tree(_ context.Context) ([]Entry, error) {
	ref, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	var entries []Entry
	if err := collectTree(tree, "", &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	return entries, nil
}

// collectTree flattens tree into blob and gitlink entries.
func collectTree(tree *object.Tree, prefix string, out *[]Entry) error {
	for _, e := range tree.Entries {
		name := path.Join(prefix, e.Name)

		if e.Mode == filemode.Dir {
			sub, err := tree.Tree(e.Name)
			if err != nil {
				return fmt.Errorf("failed to read tree %s: %w", name, err)
			}
			if err := collectTree(sub, name, out); err != nil {
				return err
			}
			continue
		}

		*out = append(*out, Entry{
			Path: name,
			Hash: e.Hash.String(),
			Mode: Mode(e.Mode),
		})
	}

	return nil
}

// HashBlob implements Repository.
func (r *nativeRepository) HashBlob(_ context.Context, content []byte) (string, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	w, err := obj.Writer()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if _, err := w.Write(content); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	return obj.Hash().String(), nil
}

// splitConfigKey splits "section[.subsection].name". Section and name are
// case-insensitive, the subsection is not.
func splitConfigKey(key string) (string, string, string, error) {
	first := strings.Index(key, ".")
	last := strings.LastIndex(key, ".")
	if first <= 0 || last == len(key)-1 {
		return "", "", "", fmt.Errorf("invalid config key %q", key)
	}

	section := strings.ToLower(key[:first])
	name := strings.ToLower(key[last+1:])

	var subsection string
	if first != last {
		subsection = key[first+1 : last]
	}

	return section, subsection, name, nil
}
