package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"mangasaver/pkg/ui"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the shared media index",
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed images",
	Args:  cobra.NoArgs,
	RunE:  runIndexList,
}

var indexRemoveCmd = &cobra.Command{
	Use:   "remove <uri>",
	Short: "Remove an indexed image and its file",
	Example: `  mangasaver index remove content://media/external/images/media/3`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexRemove,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexRemoveCmd)
}

func runIndexList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	records, err := a.store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		ui.PrintWarning("No images indexed")
		return nil
	}

	for _, rec := range records {
		state := "pending"
		if rec.Scanned {
			state = "scanned"
		}
		ui.Printf("%s  %s%s  %s  %d bytes  %s\n",
			ui.Cyan(rec.URI().String()), rec.RelativePath, rec.DisplayName, rec.MIMEType, rec.Size, ui.Dim(state))
	}
	return nil
}

func runIndexRemove(cmd *cobra.Command, args []string) error {
	uri, err := url.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid uri: %w", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.store.Delete(cmd.Context(), uri); err != nil {
		return err
	}

	a.log.WithField("uri", uri.String()).Info("Index entry removed")
	ui.PrintSuccess("Removed " + uri.String())
	return nil
}
