package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/etnz/debkit/deb"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info IN.deb",
	Short: "show the format, members and control file of a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeInfo(cmd.OutOrStdout(), args[0])
	},
}

var contentsCmd = &cobra.Command{
	Use:   "contents IN.deb",
	Short: "list the files of a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := deb.ParseFile(args[0])
		if err != nil {
			return err
		}
		names, err := a.ListFiles()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd, contentsCmd)
}

func writeInfo(w io.Writer, path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	a, err := deb.ParseFile(path)
	if err != nil {
		return err
	}
	ctl, err := a.Control()
	if err != nil {
		return err
	}
	files, err := a.ControlFiles()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, " Debian package, version %s.\n", a.Version())
	fmt.Fprintf(w, " size %s, data compressed with %s.\n", humanize.Bytes(uint64(stat.Size())), a.DataCompression())
	for _, m := range a.Members() {
		fmt.Fprintf(w, " %10s  %s\n", humanize.Bytes(uint64(m.Size)), m.Name)
	}
	fmt.Fprintf(w, " control files: %s\n", strings.Join(files, " "))
	for _, line := range strings.SplitAfter(ctl.String(), "\n") {
		if line != "" {
			fmt.Fprintf(w, " %s", line)
		}
	}
	return nil
}
