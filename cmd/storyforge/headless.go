package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/csheth/storyforge/internal/session"
)

func newIdeasCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ideas",
		Short: "Print a fresh batch of story premises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd.Context(), cmd.InOrStdin(), false)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			a.ctrl.Do(cmd.Context(), a.ctrl.RequestIdeas())
			ideas := a.ctrl.Snapshot().Ideas
			if ideas.Err != "" {
				return errors.New(ideas.Err)
			}
			out := cmd.OutOrStdout()
			for idx, idea := range ideas.Value {
				fmt.Fprintf(out, "%d. %s\n", idx+1, idea)
			}
			return nil
		},
	}
}

func newDraftCmd(opts *options) *cobra.Command {
	var (
		prompt    string
		printFull bool
	)
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Write the next paragraph for a prompt",
		Long: `Draft generates one paragraph from --prompt. With --seed the story in that
file is passed along as context so the paragraph continues it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd.Context(), cmd.InOrStdin(), false)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			a.ctrl.UpdatePrompt(prompt)
			if err := settle(cmd, a.ctrl, a.ctrl.GenerateParagraph(), func(s session.Snapshot) session.SliceView[string] {
				return s.Paragraph
			}); err != nil {
				return err
			}
			text := a.ctrl.Snapshot().Paragraph.Value
			if printFull && a.ctrl.AddParagraphToStory() {
				text = a.ctrl.Snapshot().Story
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "what should happen next")
	cmd.Flags().BoolVar(&printFull, "full", false, "print the whole story with the new paragraph appended")
	return cmd
}

func newRefineCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refine",
		Short: "Print an edited version of a story",
		Long: `Refine asks the model for an edit pass over the story given with --seed,
or read from stdin when no seed is set, and prints the suggestion.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromStdin := opts.seedPath == ""
			if fromStdin {
				opts.seedPath = "-"
			}
			a, err := opts.setup(cmd.Context(), cmd.InOrStdin(), false)
			if fromStdin {
				opts.seedPath = ""
			}
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			if err := settle(cmd, a.ctrl, a.ctrl.RequestEditSuggestion(), func(s session.Snapshot) session.SliceView[string] {
				return s.Suggestion
			}); err != nil {
				return err
			}
			a.ctrl.ApplyEditSuggestion()
			fmt.Fprintln(cmd.OutOrStdout(), a.ctrl.Snapshot().Story)
			return nil
		},
	}
}

// settle runs req and surfaces the slice's error, including the validation
// message stored when req is nil.
func settle(cmd *cobra.Command, ctrl *session.Controller, req *session.Request, slice func(session.Snapshot) session.SliceView[string]) error {
	if req != nil {
		ctrl.Do(cmd.Context(), req)
	}
	view := slice(ctrl.Snapshot())
	if view.Err != "" {
		return errors.New(strings.TrimSpace(view.Err))
	}
	if !view.Present {
		return errors.New("the model returned no result")
	}
	return nil
}
