package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/id"
	"github.com/shelfwise/shelfwise-server/internal/service"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// seedFile is the YAML fixture format. Sections are applied in field order
// so later sections can refer to users and books declared earlier.
type seedFile struct {
	Users []struct {
		Username    string `yaml:"username"`
		DisplayName string `yaml:"display_name"`
		Private     bool   `yaml:"private"`
	} `yaml:"users"`

	Follows []struct {
		Follower string `yaml:"follower"`
		Followee string `yaml:"followee"`
	} `yaml:"follows"`

	Books []struct {
		ID            string `yaml:"id"`
		OpenLibraryID string `yaml:"open_library_id"`
		Title         string `yaml:"title"`
		CoverURL      string `yaml:"cover_url"`
	} `yaml:"books"`

	Shelves []struct {
		Owner string   `yaml:"owner"`
		Name  string   `yaml:"name"`
		Slug  string   `yaml:"slug"`
		Books []string `yaml:"books"`
	} `yaml:"shelves"`

	Labels []struct {
		Owner  string      `yaml:"owner"`
		Name   string      `yaml:"name"`
		Slug   string      `yaml:"slug"`
		Mode   string      `yaml:"mode"`
		Values []seedValue `yaml:"values"`
	} `yaml:"labels"`

	Assignments []struct {
		Owner string `yaml:"owner"`
		Book  string `yaml:"book"`
		Key   string `yaml:"key"`
		Path  string `yaml:"path"`
	} `yaml:"assignments"`
}

// seedValue is one label value and its subtree.
type seedValue struct {
	Name     string      `yaml:"name"`
	Slug     string      `yaml:"slug"`
	Children []seedValue `yaml:"children"`
}

// seedStats counts what a seed run created.
type seedStats struct {
	Users, Follows, Books, Shelves, Items, Keys, Values, Assignments int
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load users, books, shelves and labels from a YAML fixture",
	Long: `Load a YAML fixture into the database.

Existing users, books and shelves (matched by username, ID and slug) are
reused, so a fixture can add books to the built-in reading-status shelves.
Label keys must not exist yet.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.seed(cmd.Context(), &f)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Seeded %d users, %d follows, %d books, %d shelves (%d items), %d label keys (%d values), %d assignments\n",
		stats.Users, stats.Follows, stats.Books, stats.Shelves, stats.Items, stats.Keys, stats.Values, stats.Assignments)
	return nil
}

func (a *app) seed(ctx context.Context, f *seedFile) (*seedStats, error) {
	stats := &seedStats{}
	userIDs := make(map[string]string, len(f.Users))

	for _, u := range f.Users {
		user, err := a.users.GetByUsername(ctx, u.Username)
		if err != nil {
			user, err = a.users.Register(ctx, service.RegisterUserRequest{
				Username:    u.Username,
				DisplayName: u.DisplayName,
				IsPrivate:   u.Private,
			})
			if err != nil {
				return nil, fmt.Errorf("user %q: %w", u.Username, err)
			}
			stats.Users++
		}
		userIDs[u.Username] = user.ID
	}

	owner := func(username string) (string, error) {
		if uid, ok := userIDs[username]; ok {
			return uid, nil
		}
		user, err := a.users.GetByUsername(ctx, username)
		if err != nil {
			return "", fmt.Errorf("owner %q: %w", username, err)
		}
		userIDs[username] = user.ID
		return user.ID, nil
	}

	for _, fl := range f.Follows {
		followerID, err := owner(fl.Follower)
		if err != nil {
			return nil, err
		}
		follow, err := a.users.Follow(ctx, followerID, fl.Followee)
		if err != nil {
			return nil, fmt.Errorf("follow %s -> %s: %w", fl.Follower, fl.Followee, err)
		}
		if follow.Status == domain.FollowPending {
			if _, err := a.users.AcceptFollower(ctx, follow.FolloweeID, fl.Follower); err != nil {
				return nil, fmt.Errorf("accept %s -> %s: %w", fl.Follower, fl.Followee, err)
			}
		}
		stats.Follows++
	}

	for _, b := range f.Books {
		exists, err := a.bookExists(ctx, b.ID, b.OpenLibraryID)
		if err != nil {
			return nil, fmt.Errorf("book %q: %w", b.ID, err)
		}
		if exists {
			continue
		}

		bookID := b.ID
		if bookID == "" {
			bookID = id.MustGenerate("book")
		}
		olid := b.OpenLibraryID
		if olid == "" {
			olid = "seed:" + bookID
		}
		book := &domain.Book{
			ID:            bookID,
			OpenLibraryID: olid,
			Title:         b.Title,
			CoverURL:      b.CoverURL,
			CreatedAt:     time.Now(),
		}
		if err := a.store.CreateBook(ctx, book); err != nil {
			return nil, fmt.Errorf("book %q: %w", bookID, err)
		}
		stats.Books++
	}

	for _, sh := range f.Shelves {
		ownerID, err := owner(sh.Owner)
		if err != nil {
			return nil, err
		}

		slug := sh.Slug
		if slug == "" || !a.shelfExists(ctx, ownerID, slug) {
			created, err := a.shelves.CreateShelf(ctx, ownerID, service.CreateShelfRequest{Name: sh.Name, Slug: sh.Slug})
			if err != nil {
				return nil, fmt.Errorf("shelf %s/%s: %w", sh.Owner, sh.Name, err)
			}
			slug = created.Slug
			stats.Shelves++
		}

		for _, bookID := range sh.Books {
			if _, err := a.shelves.AddBook(ctx, ownerID, slug, service.AddBookRequest{BookID: bookID}); err != nil {
				return nil, fmt.Errorf("shelf %s/%s book %q: %w", sh.Owner, slug, bookID, err)
			}
			stats.Items++
		}
	}

	for _, l := range f.Labels {
		ownerID, err := owner(l.Owner)
		if err != nil {
			return nil, err
		}
		key, err := a.taxonomy.CreateKey(ctx, ownerID, service.CreateKeyRequest{
			Name: l.Name,
			Slug: l.Slug,
			Mode: domain.KeyMode(l.Mode),
		})
		if err != nil {
			return nil, fmt.Errorf("label key %s/%s: %w", l.Owner, l.Name, err)
		}
		stats.Keys++

		n, err := a.seedValues(ctx, ownerID, key.Slug, "", l.Values)
		if err != nil {
			return nil, fmt.Errorf("label key %s/%s: %w", l.Owner, key.Slug, err)
		}
		stats.Values += n
	}

	for _, as := range f.Assignments {
		ownerID, err := owner(as.Owner)
		if err != nil {
			return nil, err
		}
		segments, err := service.ParseLabelPath(as.Path)
		if err != nil {
			return nil, fmt.Errorf("assignment path %q: %w", as.Path, err)
		}
		if len(segments) == 0 {
			return nil, fmt.Errorf("assignment of %q to %s: path must name a value", as.Book, as.Key)
		}
		node, err := a.labels.Resolve(ctx, ownerID, as.Key, segments)
		if err != nil {
			return nil, fmt.Errorf("assignment path %s/%s: %w", as.Key, as.Path, err)
		}
		if err := a.taxonomy.Assign(ctx, ownerID, as.Book, as.Key, node.Value.ID); err != nil {
			return nil, fmt.Errorf("assign %q to %s/%s: %w", as.Book, as.Key, as.Path, err)
		}
		stats.Assignments++
	}

	return stats, nil
}

func (a *app) seedValues(ctx context.Context, ownerID, keySlug, parentID string, values []seedValue) (int, error) {
	created := 0
	for _, v := range values {
		value, err := a.taxonomy.CreateValue(ctx, ownerID, keySlug, service.CreateValueRequest{
			Name:          v.Name,
			Slug:          v.Slug,
			ParentValueID: parentID,
		})
		if err != nil {
			return created, fmt.Errorf("value %q: %w", v.Name, err)
		}
		created++

		n, err := a.seedValues(ctx, ownerID, keySlug, value.ID, v.Children)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

// bookExists matches on ID first, then on the Open Library work ID.
func (a *app) bookExists(ctx context.Context, bookID, olid string) (bool, error) {
	if bookID != "" {
		if _, err := a.store.GetBook(ctx, bookID); err == nil {
			return true, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return false, err
		}
	}
	if olid != "" {
		if _, err := a.store.GetBookByOpenLibraryID(ctx, olid); err == nil {
			return true, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return false, err
		}
	}
	return false, nil
}

func (a *app) shelfExists(ctx context.Context, ownerID, slug string) bool {
	_, err := a.store.GetShelfBySlug(ctx, ownerID, slug)
	return err == nil
}
