// Command scamcheck runs the fairness pipeline from a terminal.
//
// Usage:
//
//	scamcheck analyze --text "bottle of water for 50000 EGP" --country Egypt --home USD
//	scamcheck rate --from EGP --to USD --amount 50000
//	scamcheck classify 42
//	scamcheck personas
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"gnosislens-api/internal/analyzer"
	"gnosislens-api/internal/exchangerate"
	"gnosislens-api/internal/fairness"
	"gnosislens-api/internal/oracle"
	"gnosislens-api/pkg/logger"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "scamcheck",
		Usage:   "Judge whether a purchase was priced fairly",
		Version: version,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "rates-url",
				Value:   exchangerate.DefaultURL,
				Usage:   "USD-based exchange-rate endpoint",
				EnvVars: []string{"RATES_API_URL"},
			},
		},

		Commands: []*cli.Command{
			analyzeCommand(),
			rateCommand(),
			classifyCommand(),
			personasCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) zerolog.Logger {
	return logger.New(logger.Config{Level: c.String("log-level"), Pretty: true})
}

func newProvider(c *cli.Context, log zerolog.Logger) *exchangerate.Provider {
	return exchangerate.NewProvider(
		exchangerate.WithFetcher(exchangerate.NewHTTPFetcher(c.String("rates-url"), 0)),
		exchangerate.WithLogger(log),
	)
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Ask the oracle to judge a purchase description",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "What you bought and what you paid", Required: true},
			&cli.StringFlag{Name: "country", Aliases: []string{"c"}, Usage: "Country of purchase"},
			&cli.StringFlag{Name: "city", Usage: "City of purchase"},
			&cli.StringFlag{Name: "home", Usage: "Home currency to convert into"},
			&cli.StringFlag{Name: "api-key", Usage: "Gemini API key", EnvVars: []string{"GEMINI_API_KEY"}, Required: true},
			&cli.StringFlag{Name: "model", Value: oracle.DefaultModel, Usage: "Gemini model", EnvVars: []string{"GEMINI_MODEL"}},
			&cli.BoolFlag{Name: "prompt-only", Usage: "Print the prompt instead of calling the oracle"},
		},
		Action: func(c *cli.Context) error {
			log := newLogger(c)
			judge := oracle.NewGeminiClient(oracle.DefaultBaseURL, c.String("api-key"), c.String("model"),
				oracle.WithJSONResponse(),
				oracle.WithLogger(log),
			)
			a := analyzer.New(judge, newProvider(c, log), analyzer.WithLogger(log))

			req := analyzer.Request{
				Text:         c.String("text"),
				Country:      c.String("country"),
				City:         c.String("city"),
				HomeCurrency: c.String("home"),
			}

			if c.Bool("prompt-only") {
				prompt, err := a.BuildPrompt(req)
				if err != nil {
					return err
				}
				fmt.Println(prompt)
				return nil
			}

			analysis, err := a.Analyze(c.Context, req)
			if err != nil {
				return err
			}
			return printJSON(analysis.Purchase)
		},
	}
}

func rateCommand() *cli.Command {
	return &cli.Command{
		Name:  "rate",
		Usage: "Quote an exchange rate, optionally converting an amount",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Required: true, Usage: "Source currency"},
			&cli.StringFlag{Name: "to", Value: exchangerate.Base, Usage: "Target currency"},
			&cli.Float64Flag{Name: "amount", Usage: "Amount in the source currency"},
		},
		Action: func(c *cli.Context) error {
			provider := newProvider(c, newLogger(c))
			q := provider.Quote(c.Context, c.String("from"), c.String("to"))

			out := map[string]interface{}{"quote": q}
			if c.IsSet("amount") {
				out["converted"] = exchangerate.Convert(c.Float64("amount"), q.Rate)
			}
			return printJSON(out)
		},
	}
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Map a fairness score to its label and persona",
		ArgsUsage: "<score>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one score", 2)
			}
			score, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid score %q", c.Args().First()), 2)
			}

			label := fairness.Classify(score)
			return printJSON(map[string]interface{}{
				"score":    fairness.Clamp(score),
				"label":    label,
				"persona":  fairness.PersonaFor(label).Info(),
				"scammed":  fairness.IsScammed(score),
				"fairDeal": fairness.IsFairDeal(score),
			})
		},
	}
}

func personasCommand() *cli.Command {
	return &cli.Command{
		Name:  "personas",
		Usage: "List the personas",
		Action: func(c *cli.Context) error {
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tROLE")
			for _, info := range fairness.Catalog() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.ID, info.Name, info.Domain, info.Role)
			}
			return tw.Flush()
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
