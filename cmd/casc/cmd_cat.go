package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newCatCmd() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "write a file's decoded content to stdout",
		ArgsUsage: "<path>",
		Flags:     []cli.Flag{localeFlag},
		Action: func(c *cli.Context) error {
			path := c.Args().Get(0)
			if path == "" {
				return fmt.Errorf("missing path argument")
			}

			h, err := openHandler(c)
			if err != nil {
				return err
			}
			defer h.Close()

			data, err := h.Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
