package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/boxpad"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of boxpad",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "boxpad version %s\n", strings.TrimSpace(boxpad.Version))
		},
	}
}
