// Command casc inspects and extracts files from a local CASC storage
// container.
package main

import (
	"fmt"
	"os"
	"sort"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/wowdev/go-casc/casc"
)

var log = logging.Logger("casc-cli")

var localeFlag = &cli.StringFlag{
	Name:  "locale",
	Usage: "restrict the root table to this locale (default: all locales)",
	Value: "all",
}

func main() {
	app := &cli.App{
		Name:  "casc",
		Usage: "inspect and extract files from a local CASC storage container",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "root",
				Aliases:  []string{"r"},
				Usage:    "path to the CASC storage root (the directory containing .build.info)",
				Required: true,
			},
		},
		Commands: []*cli.Command{
			newInfoCmd(),
			newLsCmd(),
			newCatCmd(),
			newExtractCmd(),
			newIDCmd(),
		},
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		log.Errorf("%s", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openHandler(c *cli.Context) (*casc.Handler, error) {
	root := c.String("root")
	mask, err := parseLocale(c.String("locale"))
	if err != nil {
		return nil, err
	}
	return casc.OpenHandler(root, casc.WithLocale(mask))
}

func parseLocale(name string) (casc.Locale, error) {
	switch name {
	case "", "all":
		return casc.LocaleAll, nil
	case "enUS":
		return casc.LocaleEnUS, nil
	case "koKR":
		return casc.LocaleKoKR, nil
	case "frFR":
		return casc.LocaleFrFR, nil
	case "deDE":
		return casc.LocaleDeDE, nil
	case "zhCN":
		return casc.LocaleZhCN, nil
	case "esES":
		return casc.LocaleEsES, nil
	case "zhTW":
		return casc.LocaleZhTW, nil
	case "enGB":
		return casc.LocaleEnGB, nil
	case "enCN":
		return casc.LocaleEnCN, nil
	case "enTW":
		return casc.LocaleEnTW, nil
	case "esMX":
		return casc.LocaleEsMX, nil
	case "ruRU":
		return casc.LocaleRuRU, nil
	case "ptBR":
		return casc.LocalePtBR, nil
	case "itIT":
		return casc.LocaleItIT, nil
	case "ptPT":
		return casc.LocalePtPT, nil
	case "enSG":
		return casc.LocaleEnSG, nil
	case "plPL":
		return casc.LocalePlPL, nil
	default:
		return 0, fmt.Errorf("unrecognized locale %q", name)
	}
}
