package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func newInfoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "print the active build and container statistics",
		Flags: []cli.Flag{localeFlag},
		Action: func(c *cli.Context) error {
			h, err := openHandler(c)
			if err != nil {
				return err
			}
			defer h.Close()

			fmt.Printf("build:        %s\n", h.BuildID())
			fmt.Printf("indexed keys: %s\n", humanize.Comma(int64(h.IndexedKeyCount())))
			fmt.Printf("data blobs:   %d\n", h.BlobCount())
			fmt.Printf("known ids:    %s\n", humanize.Comma(int64(len(h.IDs()))))
			return nil
		},
	}
}
