package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ttab/elephant-api/spell"
	"github.com/ttab/elephantine"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func main() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("load environment config",
			"err", err)
		os.Exit(1)
	}

	uploadCSVCmd := cli.Command{
		Name:   "upload-csv",
		Action: uploadCSV,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "file",
				Usage:     "CSV file",
				Required:  true,
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:  "language",
				Value: "en-us",
			},
		},
	}

	app := cli.Command{
		Name:  "stave-client",
		Usage: "Client for the stave spellchecking service",
		Commands: []*cli.Command{
			&uploadCSVCmd,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "Service endpoint URL",
				Sources: cli.EnvVars("STAVE_ENDPOINT"),
				Value:   "http://localhost:1080",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Access token with the spell_write scope",
				Sources: cli.EnvVars("STAVE_TOKEN"),
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		println("error: ", err.Error())
		os.Exit(1)
	}
}

func uploadCSV(ctx context.Context, c *cli.Command) (outErr error) {
	var (
		file = c.String("file")
		lang = c.String("language")
	)

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}

	defer elephantine.Close("csv file", f, &outErr)

	clients, err := getClients(ctx, c)
	if err != nil {
		return err
	}

	reader := csv.NewReader(f)

	_, err = reader.Read()
	if err != nil {
		return fmt.Errorf("skip header row: %w", err)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return fmt.Errorf("read CSV row: %w", err)
		}

		if len(row) != 3 || row[0] == "" {
			continue
		}

		correct := row[0]
		wrong := row[1]
		comment := row[2]

		var mistakes []string

		for m := range strings.SplitSeq(wrong, " | ") {
			m = strings.TrimSpace(m)
			if m != "" {
				mistakes = append(mistakes, m)
			}
		}

		slog.Info("setting entry",
			"correct", correct,
			"mistakes", mistakes,
			"comment", comment,
		)

		_, err = clients.Dictionaries.SetEntry(ctx, &spell.SetEntryRequest{
			Entry: &spell.CustomEntry{
				Language:       lang,
				Text:           correct,
				Status:         "accepted",
				CommonMistakes: mistakes,
				Description:    comment,
			},
		})
		if err != nil {
			return fmt.Errorf("save entry %q: %w", correct, err)
		}
	}

	return nil
}

type spellClients struct {
	Spellcheck   spell.Check
	Dictionaries spell.Dictionaries
}

func getClients(
	ctx context.Context,
	c *cli.Command,
) (*spellClients, error) {
	endpoint := c.String("endpoint")
	token := c.String("token")

	if token == "" {
		return nil, errors.New("no access token configured")
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
	}))

	check := spell.NewCheckProtobufClient(endpoint, client)
	dict := spell.NewDictionariesProtobufClient(endpoint, client)

	return &spellClients{
		Spellcheck:   check,
		Dictionaries: dict,
	}, nil
}
