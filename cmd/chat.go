package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ace30/insightmate/internal/chat"
	"github.com/Ace30/insightmate/internal/logging"
	"github.com/Ace30/insightmate/internal/pipeline"
	"github.com/Ace30/insightmate/internal/store"
)

var (
	chatSession string
	chatDataset string
	chatKey     string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <question...>",
	Short: "Show how a question is classified",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := chat.Classify(strings.Join(args, " "))
		var b strings.Builder
		fmt.Fprintf(&b, "Intent: %s (confidence %.2f)\n", q.Intent, q.Confidence)
		if len(q.SubTypes) > 0 {
			parts := make([]string, len(q.SubTypes))
			for i, s := range q.SubTypes {
				parts[i] = string(s)
			}
			fmt.Fprintf(&b, "Sub-intents: %s\n", strings.Join(parts, ", "))
		}
		fmt.Fprintf(&b, "Visualizations: %s\n", strings.Join(q.Visualizations, ", "))
		if !q.Parameters.Empty() {
			p := q.Parameters
			if len(p.Columns) > 0 {
				fmt.Fprintf(&b, "Column candidates: %s\n", strings.Join(p.Columns, ", "))
			}
			windows := []struct {
				label string
				n     *int
			}{{"days", p.Days}, {"weeks", p.Weeks}, {"months", p.Months}, {"years", p.Years}}
			for _, w := range windows {
				if w.n != nil {
					fmt.Fprintf(&b, "Window: %d %s\n", *w.n, w.label)
				}
			}
		}
		return emit(cmd, b.String(), q)
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <message...>",
	Short: "Ask a question about a dataset",
	Long: `Ask a question in plain language. With --dataset (or --key) the answer draws on the
cached analysis of that dataset; a dataset that has not been analyzed yet is analyzed first.
Pass --session to continue a conversation; a new session id is printed otherwise.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()

		cc, err := chatContext(ctx, st)
		if err != nil {
			return err
		}
		agent := chat.NewAgent(st.sessions, nil)
		reply, err := agent.Process(ctx, strings.Join(args, " "), chatSession, cc)
		if err != nil {
			return err
		}
		logging.FromContext(logging.WithSessionID(ctx, reply.SessionID)).
			Debug("chat reply", "intent", reply.QueryType, "with_context", cc != nil)

		var b strings.Builder
		b.WriteString(reply.Response)
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "Session: %s (%s, confidence %.2f)\n", reply.SessionID, reply.QueryType, reply.Confidence)
		if len(reply.Suggestions) > 0 {
			b.WriteString("\n[SUGGESTIONS]\n")
			for _, s := range reply.Suggestions {
				fmt.Fprintf(&b, "- %s\n", s)
			}
		}
		return emit(cmd, b.String(), reply)
	},
}

// chatContext resolves the analysis a chat answer may draw on; nil when none was asked for.
func chatContext(ctx context.Context, st *stores) (*chat.Context, error) {
	key := chatKey
	if chatDataset != "" {
		raw, err := os.ReadFile(chatDataset)
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		key = pipeline.Key(raw)
	}
	if key == "" {
		return nil, nil
	}
	e, err := pipeline.Cached(ctx, st.results, key)
	switch {
	case err == nil:
		return chat.ContextFrom(e.Analysis, &e.Summary), nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	case chatDataset == "":
		return nil, fmt.Errorf("no cached analysis for key %s", key)
	}

	logging.Default().Info("analyzing dataset for chat", "path", chatDataset)
	t, key, err := loadDataset(chatDataset)
	if err != nil {
		return nil, err
	}
	opt := pipelineOptions()
	opt.Key, opt.Source, opt.Results = key, filepath.Base(chatDataset), st.results
	out, err := pipeline.Run(ctx, t, opt)
	if err != nil {
		return nil, err
	}
	return chat.ContextFrom(out.Analysis, &out.DataSummary), nil
}

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "List starter questions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var b strings.Builder
		for _, s := range chat.StaticSuggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		return emit(cmd, b.String(), map[string][]string{"suggestions": chat.StaticSuggestions})
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(suggestionsCmd)
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id to continue")
	chatCmd.Flags().StringVarP(&chatDataset, "dataset", "d", "", "dataset file the question is about")
	chatCmd.Flags().StringVar(&chatKey, "key", "", "cached analysis key the question is about")
}
