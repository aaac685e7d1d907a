package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func newExtractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "decode a file and write it to a destination path",
		ArgsUsage: "<path> <dest>",
		Flags:     []cli.Flag{localeFlag},
		Action: func(c *cli.Context) error {
			path := c.Args().Get(0)
			dest := c.Args().Get(1)
			if path == "" || dest == "" {
				return fmt.Errorf("usage: extract <path> <dest>")
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

			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return err
			}

			log.Infow("extracted file", "path", path, "dest", dest, "size", humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
}
