package main

import (
	"bufio"
	"io"
	"os"

	"github.com/etnz/debkit/deb"
	"github.com/etnz/debkit/internal/log"
	"github.com/spf13/cobra"
)

var controlMulti bool

var controlCmd = &cobra.Command{
	Use:   "control [FILE]",
	Short: "rewrite a control file in canonical field order",
	Long: `Reads a control file (or standard input when FILE is "-" or missing)
and writes it back with fields in canonical order. With --multi every stanza
is kept, which suits Packages indices.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer log.CloseAndLogError(f, args[0])
			r = bufio.NewReader(f)
		}
		return formatControl(cmd.OutOrStdout(), r, controlMulti)
	},
}

func init() {
	controlCmd.Flags().BoolVar(&controlMulti, "multi", false, "keep every stanza instead of the first one")
	rootCmd.AddCommand(controlCmd)
}

func formatControl(w io.Writer, r io.Reader, multi bool) error {
	if !multi {
		c, err := deb.ParseControl(r)
		if err != nil {
			return err
		}
		_, err = c.WriteTo(w)
		return err
	}
	all, err := deb.ParseControls(r)
	if err != nil {
		return err
	}
	return deb.FormatControls(w, all)
}
