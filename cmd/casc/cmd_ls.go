package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

func newLsCmd() *cli.Command {
	var withSizes bool
	return &cli.Command{
		Name:  "ls",
		Usage: "list every file-data id the root table knows about",
		Flags: []cli.Flag{
			localeFlag,
			&cli.BoolFlag{
				Name:        "sizes",
				Usage:       "resolve and print each file's decoded size (slow: opens every file)",
				Destination: &withSizes,
			},
		},
		Action: func(c *cli.Context) error {
			h, err := openHandler(c)
			if err != nil {
				return err
			}
			defer h.Close()

			ids := h.IDs()
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

			if !withSizes {
				for _, id := range ids {
					fmt.Println(id)
				}
				return nil
			}

			p := mpb.New(mpb.WithWidth(64))
			bar := p.New(int64(len(ids)),
				mpb.BarStyle(),
				mpb.PrependDecorators(decor.Name("resolving sizes")),
				mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
			)

			for _, id := range ids {
				data, err := h.OpenByID(id)
				size := "?"
				if err == nil {
					size = humanize.Bytes(uint64(len(data)))
				}
				fmt.Printf("%-10d %s\n", id, size)
				bar.Increment()
			}
			p.Wait()
			return nil
		},
	}
}
