package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mindful/cmd/mindful/ui"
	"mindful/internal/api"
)

var catalogOutput string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the available assessments",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

var moodCmd = &cobra.Command{
	Use:   "mood <1-5>",
	Short: "Record today's mood (1 awful, 5 great)",
	Args:  cobra.ExactArgs(1),
	RunE:  runMood,
}

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Ask the assistant a one-off question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogOutput, "output", "o", "table", "Output format: table, json or yaml")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	svc, err := newServices(ctx)
	if err != nil {
		return err
	}
	cat, err := svc.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", api.MsgCatalogFailed, err)
	}

	out := cmd.OutOrStdout()
	switch catalogOutput {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cat)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		// Round-trip through JSON so the field names match the catalog document.
		data, err := json.Marshal(cat)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		return enc.Encode(doc)
	case "table":
		table := ui.NewTable("TYPE", "TITLE", "QUESTIONS", "FOLLOW-UPS")
		table.Numeric[2], table.Numeric[3] = true, true
		for _, key := range cat.Keys() {
			a := cat[key]
			table.AddRow(key, a.Title, strconv.Itoa(len(a.Questions)), strconv.Itoa(len(a.ContextualQuestions)))
		}
		_, err := fmt.Fprint(out, table.Render(ui.DefaultStyles(), "No assessments available."))
		return err
	default:
		return fmt.Errorf("unknown output format %q", catalogOutput)
	}
}

func runMood(cmd *cobra.Command, args []string) error {
	value, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("mood must be a number between %d and %d", api.MoodMin, api.MoodMax)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	svc, err := newServices(ctx)
	if err != nil {
		return err
	}

	result, err := svc.SaveMood(ctx, value)
	if err != nil {
		if value >= api.MoodMin && value <= api.MoodMax {
			return fmt.Errorf("%s: %w", api.MsgMoodNetwork, err)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	if !result.Saved {
		return fmt.Errorf("mood not saved")
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	svc, err := newServices(ctx)
	if err != nil {
		return err
	}

	answer, err := svc.Client.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
