package main

import (
	"fmt"

	"github.com/etnz/debkit/deb"
	"github.com/etnz/debkit/internal/log"
	"github.com/spf13/cobra"
)

var repackOpts struct {
	set         kvFlags
	unset       []string
	bump        bool
	compression deb.Compression
}

var repackCmd = &cobra.Command{
	Use:   "repack IN.deb OUT.deb",
	Short: "rewrite a package with another compression or edited control fields",
	Args:  cobra.ExactArgs(2),
	RunE:  runRepack,
}

func init() {
	repackCmd.Flags().Var(&repackOpts.set, "set", "set a control field (Key=Value), may be repeated")
	repackCmd.Flags().StringArrayVar(&repackOpts.unset, "unset", nil, "remove a control field, may be repeated")
	repackCmd.Flags().BoolVar(&repackOpts.bump, "bump", false, "increment the Debian revision of the version")
	addCompressionFlag(repackCmd, &repackOpts.compression)
	rootCmd.AddCommand(repackCmd)
}

func runRepack(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	c, err := compressionFlag(cmd, repackOpts.compression)
	if err != nil {
		return err
	}
	a, err := deb.ParseFile(in)
	if err != nil {
		return err
	}
	ctl, err := a.Control()
	if err != nil {
		return err
	}
	if err := editControl(ctl, repackOpts.set, repackOpts.unset, repackOpts.bump); err != nil {
		return err
	}

	p, err := a.Repack()
	if err != nil {
		return err
	}
	if err := p.WriteFile(out, c); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	log.Infof("wrote %s (%s)", out, c)
	return nil
}

// editControl applies the configured fields, then the command line edits.
func editControl(ctl *deb.Control, set kvFlags, unset []string, bump bool) error {
	if err := appConfig.ApplyFields(ctl); err != nil {
		return err
	}
	for k, v := range set {
		ctl.Set(k, v)
	}
	for _, k := range unset {
		if !ctl.Has(k) {
			log.Warnf("field %s is not set", k)
		}
		ctl.Delete(k)
	}
	if bump {
		key := string(deb.FieldVersion)
		if !ctl.Has(key) {
			return fmt.Errorf("cannot bump: %s is not set", key)
		}
		old := ctl.Text(key)
		ctl.Set(key, deb.BumpRevision(old))
		log.Debugf("version %s bumped to %s", old, ctl.Text(key))
	}
	return nil
}
