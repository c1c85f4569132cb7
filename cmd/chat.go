package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anaphor-dev/anaphor/internal/orchestrator"
	"github.com/anaphor-dev/anaphor/internal/selection"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive console session against the local engine",
	Long: `Starts a console session that feeds each line through the resolution
engine and prints the outcome: a fresh query, a resolved back-reference,
or a clarification question. After a fresh query you can type the
assistant's reply to record the turn and build up history.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "resume an existing session id")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	sessionID := chatSession
	if sessionID == "" {
		sess, err := a.turns.CreateSession(ctx)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		sessionID = sess.ID
	}

	fmt.Printf("Session %s\n", sessionID)
	fmt.Println(`Type a message, /help for commands, or "exit" to quit.`)

	scanner := bufio.NewScanner(os.Stdin)
	var pendingOptions []selection.Option

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "q" {
			fmt.Println("Goodbye.")
			break
		}
		if strings.HasPrefix(line, "/") {
			if err := a.chatCommand(ctx, sessionID, line, &pendingOptions); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			continue
		}

		outcome, err := a.engine.Handle(ctx, orchestrator.Request{
			SessionID: sessionID,
			Message:   line,
			Options:   pendingOptions,
		})
		pendingOptions = nil
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		a.printOutcome(ctx, scanner, sessionID, outcome)
	}
	return scanner.Err()
}

// chatCommand handles the slash commands of the chat loop.
func (a *app) chatCommand(ctx context.Context, sessionID, line string, pending *[]selection.Option) error {
	name, rest, _ := strings.Cut(line, " ")
	switch name {
	case "/help":
		fmt.Println(`Commands:
  /options A, B, C   attach candidate options to the next message
  /history           list the recorded turns of this session
  /state             show the pending clarification, if any
  /clear             drop the pending clarification
  /help              this message`)
	case "/options":
		opts, err := parseOptionFlags(rest, "", a.cfg.Resolver.DisplayField)
		if err != nil {
			return err
		}
		*pending = opts
		if len(opts) == 0 {
			fmt.Println("Cleared pending options.")
		} else {
			fmt.Printf("Next message carries %d options.\n", len(opts))
		}
	case "/history":
		turns, err := a.turns.List(ctx, sessionID, 0)
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			fmt.Println("No turns recorded yet.")
			return nil
		}
		for _, t := range turns {
			fmt.Printf("  %d. Q: %s\n", t.TurnNumber, t.Query)
			fmt.Printf("     A: %s\n", t.Response)
		}
	case "/state":
		state, err := a.states.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if state == nil {
			fmt.Println("No pending clarification.")
			return nil
		}
		fmt.Printf("Pending clarification for %q with %d options.\n", state.OriginalQuery, len(state.Options))
	case "/clear":
		if err := a.states.Clear(ctx, sessionID); err != nil {
			return err
		}
		fmt.Println("Cleared pending clarification state.")
	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
	return nil
}

// printOutcome renders one engine outcome. Clarification questions already
// carry their numbered option list, so they print as-is.
func (a *app) printOutcome(ctx context.Context, scanner *bufio.Scanner, sessionID string, out orchestrator.Outcome) {
	switch out.Kind {
	case orchestrator.KindAskClarification:
		fmt.Println(out.Question)
	case orchestrator.KindResolved:
		fmt.Printf("Selected option %d: %s (%s, %.0f%%)\n",
			*out.Index+1, a.optionName(*out.Option), *out.Strategy, out.Confidence*100)
		if out.Reference != nil {
			fmt.Printf("  refers to turn %d: %s\n", out.Reference.TurnNumber, out.Reference.Query)
		}
	case orchestrator.KindNewQuery:
		switch {
		case out.Reference != nil:
			fmt.Printf("New query, referring back to turn %d: %q\n", out.Reference.TurnNumber, out.Reference.Query)
		case out.Intent != nil:
			fmt.Printf("New query (%s signal, no matching turn)\n", out.Intent.Type)
		default:
			fmt.Println("New query")
		}
		a.recordReply(ctx, scanner, sessionID, out.Query)
	}
}

// recordReply optionally records the assistant's reply for a fresh query,
// so the session accumulates history to resolve later references against.
func (a *app) recordReply(ctx context.Context, scanner *bufio.Scanner, sessionID, query string) {
	fmt.Print("reply (enter to skip)> ")
	if !scanner.Scan() {
		return
	}
	reply := strings.TrimSpace(scanner.Text())
	if reply == "" {
		return
	}
	turn, err := a.recorder.Record(ctx, sessionID, query, reply, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: recording turn: %v\n", err)
		return
	}
	fmt.Printf("Recorded turn %d.\n", turn.TurnNumber)
}

func (a *app) optionName(opt selection.Option) string {
	if name, ok := opt.Display(a.cfg.Resolver.DisplayField); ok {
		return name
	}
	return fmt.Sprintf("%v", opt)
}
