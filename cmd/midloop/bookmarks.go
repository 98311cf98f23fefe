package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"midloop/content"
	"midloop/format"
)

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List, export and import bookmarks",
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarked items, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var items []content.StandardItem
		if listType != "" {
			items, err = a.bookmarks.ListByType(content.ContentType(listType))
		} else {
			items, err = a.bookmarks.List()
		}
		if err != nil {
			return err
		}
		printBookmarks(cmd, items)
		return displayStats(cmd, a.store)
	},
}

var bookmarksSearchCmd = &cobra.Command{
	Use:   "search <title>",
	Short: "Find bookmarks by title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.bookmarks.Search(args[0])
		if err != nil {
			return err
		}
		printBookmarks(cmd, items)
		return nil
	},
}

func printBookmarks(cmd *cobra.Command, items []content.StandardItem) {
	out := cmd.OutOrStdout()
	for _, item := range items {
		fmt.Fprintf(out, "%-8s %-24s %-40s %s\n",
			item.Type(), item.ID, item.Title, format.DateDisplay(item.ReleaseDate, format.DateShort))
	}
}

var bookmarksExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write bookmarks as JSON to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			return a.bookmarks.Export(cmd.OutOrStdout())
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return a.bookmarks.Export(f)
	},
}

var bookmarksImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bookmark every item in an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := a.bookmarks.Import(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s bookmarks\n", humanize.Comma(int64(n)))
		return nil
	},
}

var listType string

func init() {
	bookmarksListCmd.Flags().StringVar(&listType, "type", "", "Only list one type: movie, tv-show or game")
	bookmarksCmd.AddCommand(bookmarksListCmd)
	bookmarksCmd.AddCommand(bookmarksSearchCmd)
	bookmarksCmd.AddCommand(bookmarksExportCmd)
	bookmarksCmd.AddCommand(bookmarksImportCmd)
}
