// lectio-import loads chapter audio manifests into the local catalog.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lectioapp/lectio/internal/canon"
	"github.com/lectioapp/lectio/internal/catalog"
	"github.com/lectioapp/lectio/internal/errmsg"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "lectio-import <manifest.toml>...",
		Short: "Import chapter audio and verse timings into the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.OpenSQLite(catalogPath)
			if err != nil {
				return errors.New(errmsg.Format(errmsg.OpCatalogOpen, err))
			}
			defer store.Close()

			for _, path := range args {
				if err := importManifest(cmd, store, path); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog database path (default: XDG data dir)")
	return cmd
}

func importManifest(cmd *cobra.Command, store *catalog.SQLite, path string) error {
	m, err := loadManifest(path)
	if err != nil {
		return err
	}

	if len(m.Books) > 0 {
		books := make([]canon.Book, 0, len(m.Books))
		for _, b := range m.Books {
			books = append(books, canon.Book{
				ID:       b.ID,
				Name:     b.Name,
				Order:    b.Order,
				Chapters: b.Chapters,
			})
		}
		if err := store.PutBooks(books); err != nil {
			return fmt.Errorf("store books: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %d books\n", len(books))
	}

	for i := range m.Chapters {
		ca, err := m.Chapters[i].toChapterAudio()
		if err != nil {
			return err
		}
		if err := store.PutChapter(ca); err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpChapterStore, ca.Ref.String(), err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d verses)\n", ca.Ref, len(ca.Verses))
	}
	return nil
}
