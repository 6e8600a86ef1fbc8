package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/boulderkit/internal/assets"
	"github.com/Faultbox/boulderkit/pkg/grf"
)

func newPackCmd() *cobra.Command {
	var (
		prefix     string
		extensions []string
	)

	cmd := &cobra.Command{
		Use:   "pack <dir> <archive.grf>",
		Short: "Bundle a directory of fragment meshes into a GRF archive",
		Long: `Pack walks dir and stores every mesh file in a GRF archive that can be
listed under assets.roots, optionally under a folder: "fragments.grf:boulder".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := packDir(args[0], args[1], prefix, extensions)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Packed %d meshes into %s\n", n, args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "folder inside the archive")
	cmd.Flags().StringSliceVar(&extensions, "ext", assets.DefaultExtensions, "file extensions to include")

	return cmd
}

func packDir(dir, out, prefix string, extensions []string) (n int, err error) {
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return 0, fmt.Errorf("creating archive directory: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
		}
	}()

	w, err := grf.NewWriter(f)
	if err != nil {
		return 0, err
	}

	src := os.DirFS(dir)
	err = fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(extensions, strings.ToLower(path.Ext(p))) {
			return nil
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		if err := w.Add(path.Join(prefix, p), data); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("packing %s: %w", dir, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("writing archive: %w", err)
	}
	return n, nil
}
