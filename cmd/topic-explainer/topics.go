// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topic-explainer/internal/topics"
	"github.com/pdiddy/topic-explainer/pkg/types"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Validate the topic file and list its records",
	Long: `Topics parses the topic file the same way run does and prints every
record together with the lines that would be skipped. With --strict a file
with skipped lines is an error.`,
	RunE: runTopics,
}

func init() {
	topicsCmd.Flags().String("topics", "topics.txt", "topic source file")
	topicsCmd.Flags().String("topic-format", "triple", "topic line format: triple or single")
	topicsCmd.Flags().Bool("strict", false, "fail when any line is skipped")

	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("topics")
	formatFlag, _ := cmd.Flags().GetString("topic-format")
	strict, _ := cmd.Flags().GetBool("strict")

	format, err := types.ParseTopicFormat(formatFlag)
	if err != nil {
		return err
	}
	res, err := topics.ReadFile(path, format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tQUERY\tIMAGE QUERY")
	for _, t := range res.Topics {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Code, t.DetailedQuery, t.ImageQuery)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, issue := range res.Issues {
		fmt.Fprintf(out, "skipped: %s\n", issue)
	}
	fmt.Fprintf(out, "\n%d topic(s), %d skipped line(s)\n", len(res.Topics), len(res.Issues))

	if strict && len(res.Issues) > 0 {
		return fmt.Errorf("%d malformed line(s) in %s", len(res.Issues), path)
	}
	return nil
}
