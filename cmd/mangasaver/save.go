package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/webp"
	"mangasaver/pkg/saver"
	"mangasaver/pkg/ui"
)

var (
	saveName string
	saveDest string
	savePath string
)

// saveCmd represents the save command
var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a page or a cover",
	Long: `Save a manga page or cover to the image cache or to shared pictures.

Destinations:
  cache     the app's private image cache
  pictures  <Pictures>/<app name>/<path>, visible to other applications`,
}

var savePageCmd = &cobra.Command{
	Use:   "page <file>",
	Short: "Save an encoded page as is",
	Long: `Save an already encoded page. The bytes are copied unchanged and the file
extension follows the detected format (jpg, png, gif, webp, avif, heif, jxl).`,
	Example: `  mangasaver save page 001.webp --name chapter1_page1
  mangasaver save page 001.png --dest pictures --path one-piece/ch1`,
	Args: cobra.ExactArgs(1),
	RunE: runSavePage,
}

var saveCoverCmd = &cobra.Command{
	Use:   "cover <file>",
	Short: "Decode an image and save it as a JPEG cover",
	Example: `  mangasaver save cover cover.png --dest pictures --path one-piece`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSaveCover,
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.AddCommand(savePageCmd)
	saveCmd.AddCommand(saveCoverCmd)

	saveCmd.PersistentFlags().StringVarP(&saveName, "name", "n", "", "display name without extension (default is the file name)")
	saveCmd.PersistentFlags().StringVarP(&saveDest, "dest", "d", "cache", "destination: cache or pictures")
	saveCmd.PersistentFlags().StringVarP(&savePath, "path", "p", "", "subfolder under the app's pictures folder")
}

// destination builds the Location selected by --dest and --path
func destination(dest, relativePath string) (saver.Location, error) {
	switch strings.ToLower(dest) {
	case "cache":
		if relativePath != "" {
			return nil, fmt.Errorf("--path is only valid with --dest pictures")
		}
		return saver.Cache{}, nil
	case "pictures":
		return saver.NewPictures(strings.Trim(relativePath, "/")), nil
	default:
		return nil, fmt.Errorf("unknown destination %q (want cache or pictures)", dest)
	}
}

// displayName returns --name, or file's base name without its extension
func displayName(file string) string {
	if saveName != "" {
		return saveName
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runSavePage(cmd *cobra.Command, args []string) error {
	file := args[0]
	loc, err := destination(saveDest, savePath)
	if err != nil {
		return err
	}

	return runSave(cmd, saver.Page{
		Open:     func() (io.ReadCloser, error) { return os.Open(file) },
		Name:     displayName(file),
		Location: loc,
	})
}

func runSaveCover(cmd *cobra.Command, args []string) error {
	file := args[0]
	loc, err := destination(saveDest, savePath)
	if err != nil {
		return err
	}

	bitmap, err := imaging.Open(file, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode cover: %w", err)
	}

	return runSave(cmd, saver.Cover{
		Bitmap:   bitmap,
		Name:     displayName(file),
		Location: loc,
	})
}

func runSave(cmd *cobra.Command, img saver.Image) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ui.PrintBanner()
	ui.PrintInfo("Name", img.DisplayName())
	ui.PrintInfo("Destination", saveDest)

	uri, err := a.saver.Save(cmd.Context(), img)
	if err != nil {
		return err
	}

	ui.PrintSuccess("Image saved")
	ui.PrintInfo("URI", uri.String())
	return nil
}
