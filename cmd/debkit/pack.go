package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/etnz/debkit/deb"
	"github.com/etnz/debkit/internal/log"
	"github.com/spf13/cobra"
)

var packOpts struct {
	controlDir  string
	dataDir     string
	output      string
	compression deb.Compression
}

var packCmd = &cobra.Command{
	Use:   "pack -c CONTROL_DIR -i DATA_DIR [-o OUT.deb]",
	Short: "build a package from a control directory and a data directory",
	Args:  cobra.NoArgs,
	RunE:  runPack,
}

func init() {
	packCmd.Flags().StringVarP(&packOpts.controlDir, "control", "c", "", "directory holding the control file and maintainer scripts")
	packCmd.Flags().StringVarP(&packOpts.dataDir, "input", "i", "", "directory holding the files to install")
	packCmd.Flags().StringVarP(&packOpts.output, "output", "o", "", "package file to write (default NAME_VERSION_ARCH.deb)")
	addCompressionFlag(packCmd, &packOpts.compression)
	_ = packCmd.MarkFlagRequired("control")
	_ = packCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, _ []string) error {
	c, err := compressionFlag(cmd, packOpts.compression)
	if err != nil {
		return err
	}
	p, err := deb.Pack(packOpts.controlDir, packOpts.dataDir)
	if err != nil {
		return err
	}
	ctl, err := p.Control()
	if err != nil {
		return err
	}
	if len(appConfig.Fields) > 0 {
		if err := appConfig.ApplyFields(ctl); err != nil {
			return err
		}
		if p, err = p.WithControl(ctl); err != nil {
			return err
		}
	}

	out := packOpts.output
	if out == "" {
		out = standardFilename(ctl)
	}
	if err := p.WriteFile(out, c); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	log.Infof("wrote %s (%s)", out, c)
	return nil
}

// standardFilename returns the conventional NAME_VERSION_ARCH.deb file name.
// The epoch is not part of it.
func standardFilename(ctl *deb.Control) string {
	version := ctl.Text(string(deb.FieldVersion))
	if i := strings.Index(version, ":"); i >= 0 {
		version = version[i+1:]
	}
	name := fmt.Sprintf("%s_%s_%s.deb", ctl.Text(string(deb.FieldPackage)), version, ctl.Text(string(deb.FieldArchitecture)))
	return filepath.Base(name)
}
