package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
)

func newIDCmd() *cli.Command {
	return &cli.Command{
		Name:      "id",
		Usage:     "write a file-data id's decoded content to stdout",
		ArgsUsage: "<file-data-id>",
		Flags:     []cli.Flag{localeFlag},
		Action: func(c *cli.Context) error {
			raw := c.Args().Get(0)
			if raw == "" {
				return fmt.Errorf("missing file-data-id argument")
			}
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid file-data-id %q: %w", raw, err)
			}

			h, err := openHandler(c)
			if err != nil {
				return err
			}
			defer h.Close()

			data, err := h.OpenByID(uint32(id))
			if err != nil {
				return fmt.Errorf("id %d: %w", id, err)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
