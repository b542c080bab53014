package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindful/internal/api"
	"mindful/internal/assessment"
	"mindful/internal/config"
)

var assessCmd = &cobra.Command{
	Use:   "assess [type]",
	Short: "Take an assessment in line mode",
	Long: `Walks through an assessment one question at a time and submits it.

Type is a catalog key or alias (gad-7, phq-9, anxiety, depression).
At each prompt:
  number(s)  select an option (comma separated for multiple choice)
  text       answer an open-ended question
  <enter>    next / complete
  b          back
  q          quit without saving`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		svc, err := newServices(ctx)
		if err != nil {
			return err
		}
		return runAssessment(ctx, svc, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var errAborted = errors.New("assessment abandoned")

type assessmentService interface {
	Lookup(ctx context.Context, name string) (*assessment.Assessment, string, error)
	Submit(ctx context.Context, a *assessment.Assessment, store *assessment.Store) (*api.SaveResult, error)
}

// runAssessment drives a session from line input until it is saved or the
// user quits.
func runAssessment(ctx context.Context, svc assessmentService, name string, in io.Reader, out io.Writer) error {
	a, key, err := svc.Lookup(ctx, name)
	if err != nil {
		return err
	}
	session, err := assessment.NewSession(key, a, logs.Get(config.CategoryFlow))
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Fprintf(out, "%s\n", a.Title)
	scanner := bufio.NewScanner(in)
	flow := session.Flow
	for {
		input, err := flow.Input()
		if err != nil {
			return err
		}
		printQuestion(out, flow, input)

		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return errAborted
		}
		line := strings.TrimSpace(scanner.Text())

		advance := false
		switch {
		case line == "q":
			return errAborted
		case line == "b":
			if !flow.Retreat() {
				fmt.Fprintln(out, "Already at the first question.")
			}
			continue
		case line == "":
			advance = true
		default:
			advance, err = answer(input, line)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
		}
		if !advance {
			continue
		}

		step, err := session.Advance()
		var verr *assessment.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(out, verr.Message)
			continue
		}
		if err != nil {
			return err
		}
		if step == assessment.StepPhaseSwitched {
			fmt.Fprintln(out, "\nA few follow-up questions.")
		}
		if step != assessment.StepSubmit {
			continue
		}

		result, err := svc.Submit(ctx, session.Assessment, session.Store)
		if err != nil {
			flow.SubmissionFailed()
			logger.Warn("assessment submission failed", zap.Error(err))
			fmt.Fprintln(out, api.MsgSaveFailed, "Press enter to retry or q to quit.")
			continue
		}
		flow.SubmissionSucceeded()
		printResult(out, result)
		return nil
	}
}

func printQuestion(out io.Writer, flow *assessment.Flow, input assessment.Input) {
	current, total := flow.Progress()
	fmt.Fprintf(out, "\nQuestion %d of %d: %s\n", current, total, flow.Current().Text)

	switch in := input.(type) {
	case *assessment.ScaleInput:
		selected, ok := in.Selected()
		for i, opt := range in.Options() {
			mark := "( )"
			if ok && i == selected {
				mark = "(•)"
			}
			fmt.Fprintf(out, "  %d. %s %s\n", i+1, mark, opt)
		}
	case *assessment.ChoiceInput:
		for i, opt := range in.Options() {
			mark := "[ ]"
			if in.Checked(opt) {
				mark = "[x]"
			}
			fmt.Fprintf(out, "  %d. %s %s\n", i+1, mark, opt)
		}
	case *assessment.TextInput:
		if text := in.Text(); text != "" {
			fmt.Fprintf(out, "  (current: %s)\n", text)
		} else {
			fmt.Fprintf(out, "  %s\n", in.Placeholder())
		}
	}
	fmt.Fprintf(out, "[enter] %s\n", flow.NextLabel())
}

// answer applies line to input. It reports whether the flow should advance
// right away, which is the case for single-choice and text answers.
func answer(input assessment.Input, line string) (bool, error) {
	switch in := input.(type) {
	case *assessment.ScaleInput:
		n, err := strconv.Atoi(line)
		if err != nil {
			return false, fmt.Errorf("enter an option number")
		}
		if err := in.Select(n - 1); err != nil {
			return false, err
		}
		return true, nil
	case *assessment.ChoiceInput:
		// Reject the whole line before toggling anything.
		parts := strings.Split(line, ",")
		picks := make([]int, 0, len(parts))
		for _, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return false, fmt.Errorf("enter option numbers separated by commas")
			}
			if n < 1 || n > len(in.Options()) {
				return false, fmt.Errorf("option %d does not exist", n)
			}
			picks = append(picks, n-1)
		}
		for _, i := range picks {
			if _, err := in.ToggleIndex(i); err != nil {
				return false, err
			}
		}
		return false, nil
	case *assessment.TextInput:
		in.SetText(line)
		return true, nil
	default:
		return false, fmt.Errorf("unsupported question")
	}
}

func printResult(out io.Writer, result *api.SaveResult) {
	fmt.Fprintln(out, "\n"+result.Notice())
	if !result.HasInsights() {
		return
	}
	in := result.Insights
	if in.Summary != "" {
		fmt.Fprintln(out, "\n"+in.Summary)
	}
	if len(in.Recommendations) > 0 {
		fmt.Fprintln(out, "\nRecommendations:")
		for _, r := range in.Recommendations {
			fmt.Fprintln(out, "  - "+r)
		}
	}
	if len(in.Resources) > 0 {
		fmt.Fprintln(out, "\nResources:")
		for _, r := range in.Resources {
			fmt.Fprintln(out, "  - "+r)
		}
	}
}
