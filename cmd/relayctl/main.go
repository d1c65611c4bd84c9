// Command relayctl is the admin CLI for a running relay server (C17,
// SPEC_FULL.md §4.17): dump indexer/session stats, trigger a full reindex,
// or mint a dev-only access token, mirroring the teacher's cmd/cli tool.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "relayctl",
		Usage: "administer a running relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "http://localhost:8080",
				Usage:   "base URL of the relay server",
			},
		},
		Commands: []*cli.Command{
			statsCmd,
			reindexCmd,
			tokenCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "relayctl:", err)
		os.Exit(1)
	}
}

var statsCmd = &cli.Command{
	Name:  "stats",
	Usage: "dump indexer and session stats from a running server",
	Action: func(c *cli.Context) error {
		body, err := doRequest(http.MethodGet, c.String("server")+"/admin/stats", "")
		if err != nil {
			return err
		}
		var stats map[string]any
		if err := json.Unmarshal(body, &stats); err != nil {
			return fmt.Errorf("decode stats response: %w", err)
		}
		for k, v := range stats {
			fmt.Printf("%-24s %v\n", k, v)
		}
		return nil
	},
}

var reindexCmd = &cli.Command{
	Name:  "reindex",
	Usage: "trigger a full search/link index rebuild",
	Action: func(c *cli.Context) error {
		_, err := doRequest(http.MethodPost, c.String("server")+"/admin/reindex", "")
		if err != nil {
			return err
		}
		fmt.Println("reindex triggered")
		return nil
	},
}

var tokenCmd = &cli.Command{
	Name:  "token",
	Usage: "dev token operations",
	Subcommands: []*cli.Command{
		{
			Name:  "mint",
			Usage: "mint a dev-only access token for a document",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "doc-id", Required: true},
			},
			Action: func(c *cli.Context) error {
				q := url.Values{"doc_id": []string{c.String("doc-id")}}
				body, err := doRequest(http.MethodPost, c.String("server")+"/admin/token?"+q.Encode(), "")
				if err != nil {
					return err
				}
				var resp map[string]string
				if err := json.Unmarshal(body, &resp); err != nil {
					return fmt.Errorf("decode token response: %w", err)
				}
				fmt.Println(resp["token"])
				return nil
			},
		},
	},
}

func doRequest(method, target, body string) ([]byte, error) {
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s: %w", target, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s", resp.Status, string(out))
	}
	return out, nil
}
