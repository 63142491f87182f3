package main

import (
	"github.com/etnz/debkit/deb"
	"github.com/etnz/debkit/internal/log"
	"github.com/spf13/cobra"
)

var unpackOpts struct {
	output  string
	control string
}

var unpackCmd = &cobra.Command{
	Use:   "unpack IN.deb -o DIR",
	Short: "extract the files of a package into a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnpack,
}

func init() {
	unpackCmd.Flags().StringVarP(&unpackOpts.output, "output", "o", "", "directory to extract the data files into")
	unpackCmd.Flags().StringVarP(&unpackOpts.control, "control", "c", "", "directory to extract the control files into")
	_ = unpackCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(unpackCmd)
}

func runUnpack(_ *cobra.Command, args []string) error {
	a, err := deb.ParseFile(args[0])
	if err != nil {
		return err
	}
	if err := a.Unpack(unpackOpts.output); err != nil {
		return err
	}
	if unpackOpts.control != "" {
		if err := a.UnpackControl(unpackOpts.control); err != nil {
			return err
		}
	}
	log.Infof("extracted %s into %s", args[0], unpackOpts.output)
	return nil
}
