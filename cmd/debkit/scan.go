package main

import (
	"github.com/etnz/debkit/repo"
	"github.com/etnz/debkit/internal/log"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var scanOpts struct {
	input       string
	output      string
	prefix      string
	pattern     string
	workers     int
	skipInvalid bool
}

var scanCmd = &cobra.Command{
	Use:   "scan -i DIR [-o OUTDIR]",
	Short: "index a directory of packages",
	Long: `Finds the packages beneath DIR and prints their Packages index. With
-o, a flat repository index is written instead: Packages, Packages.gz,
Packages.xz, Release and, when a signing key is configured, InRelease.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOpts.input, "input", "i", ".", "directory to scan")
	scanCmd.Flags().StringVarP(&scanOpts.output, "output", "o", "", "directory to write the repository index into")
	scanCmd.Flags().StringVarP(&scanOpts.prefix, "prefix", "p", "", "prefix of the Filename fields (default from config)")
	scanCmd.Flags().StringVar(&scanOpts.pattern, "pattern", repo.DefaultPattern, "glob selecting the packages")
	scanCmd.Flags().IntVarP(&scanOpts.workers, "jobs", "j", 0, "packages parsed at once (default from config, then GOMAXPROCS)")
	scanCmd.Flags().BoolVar(&scanOpts.skipInvalid, "skip-invalid", false, "leave unreadable packages out instead of failing")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	opts := repo.Options{
		Pattern:     scanOpts.pattern,
		Prefix:      appConfig.Prefix,
		Workers:     appConfig.Workers,
		SkipInvalid: scanOpts.skipInvalid,
	}
	if cmd.Flags().Changed("prefix") {
		opts.Prefix = scanOpts.prefix
	}
	if cmd.Flags().Changed("jobs") {
		opts.Workers = scanOpts.workers
	}

	idx, err := repo.Scan(cmd.Context(), scanOpts.input, opts)
	if merr, ok := err.(*multierror.Error); ok && opts.SkipInvalid {
		log.Warnf("skipped %d invalid packages", merr.Len())
	} else if err != nil {
		return err
	}
	log.Infof("indexed %d packages", len(idx.Entries))

	if scanOpts.output == "" {
		_, err := idx.WriteTo(cmd.OutOrStdout())
		return err
	}
	key, err := appConfig.Key()
	if err != nil {
		return err
	}
	return idx.WriteDir(scanOpts.output, appConfig.Release, key)
}
