package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/editor"
)

const helpText = `Commands:
• find <kind> <id> - List every reference to an id
• plan <kind> <old> <new> - Show what a rename would touch
• rename <kind> <old> <new> - Rename an id and retarget its references
• ids <kind> - List the ids of a kind
• validate - Check the whole content graph
• dirty - Show tables with unsaved changes
• save - Write dirty tables
• autosave - Write dirty tables to the draft store
• copy - Copy the last output to the clipboard
• help - Show this help
• quit - Leave the editor (Ctrl+C also works)

Kinds: dialogue, event, cutscene, tutorial, milestone, item, room,
npc, player_action, quest, stage, task. Stage and task ids are
written quest_id:child_id.`

// output is the result of one console command.
type output struct {
	Title string
	Lines []string
	Err   error
	Quit  bool
	Copy  bool
}

// Text renders the output as plain text, the form used for the clipboard.
func (o output) Text() string {
	var b strings.Builder
	if o.Title != "" {
		b.WriteString(o.Title + "\n")
	}
	for _, l := range o.Lines {
		b.WriteString(l + "\n")
	}
	if o.Err != nil {
		b.WriteString("Error: " + o.Err.Error() + "\n")
	}
	return b.String()
}

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

// runCommand parses and executes one line of input against the session.
// A leading '/' is ignored, so "/help" and "help" are the same command.
func runCommand(ctx context.Context, s *editor.Session, input string) output {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(input), "/"))
	if len(fields) == 0 {
		return output{}
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		return output{Title: "Help", Lines: strings.Split(helpText, "\n")}

	case "quit", "exit", "q":
		return output{Quit: true}

	case "copy":
		return output{Copy: true}

	case "find":
		if len(args) != 2 {
			return output{Title: "find", Err: usage("find <kind> <id>")}
		}
		kind, err := parseKind(args[0])
		if err != nil {
			return output{Title: "find", Err: err}
		}
		hits := s.Find(kind, args[1])
		out := output{Title: fmt.Sprintf("%d reference(s) to %s %s", len(hits), kind, args[1])}
		for _, h := range hits {
			out.Lines = append(out.Lines, fmt.Sprintf("• %s  (%s)", h.Label, h.Locator))
		}
		return out

	case "plan", "rename":
		if len(args) != 3 {
			return output{Title: cmd, Err: usage(cmd + " <kind> <old> <new>")}
		}
		kind, err := parseKind(args[0])
		if err != nil {
			return output{Title: cmd, Err: err}
		}
		apply := s.PlanRename
		verb := "would rename"
		if cmd == "rename" {
			apply = s.Rename
			verb = "renamed"
		}
		res, err := apply(kind, args[1], args[2])
		if err != nil {
			return output{Title: cmd, Err: err}
		}
		if res.NoOp {
			return output{Title: fmt.Sprintf("%s %s is already named %s", kind, res.OldID, res.NewID)}
		}
		out := output{Title: fmt.Sprintf("%s %s %s → %s", verb, kind, res.OldID, res.NewID)}
		for _, h := range res.Sites {
			out.Lines = append(out.Lines, fmt.Sprintf("• %s  (%s)", h.Label, h.Locator))
		}
		out.Lines = append(out.Lines, "tables: "+joinKinds(res.Tables))
		return out

	case "ids":
		if len(args) != 1 {
			return output{Title: "ids", Err: usage("ids <kind>")}
		}
		kind, err := parseKind(args[0])
		if err != nil {
			return output{Title: "ids", Err: err}
		}
		ids := s.Store.AllIDs(kind)
		out := output{Title: fmt.Sprintf("%d %s id(s)", len(ids), kind)}
		for _, id := range ids {
			out.Lines = append(out.Lines, "• "+id)
		}
		return out

	case "validate":
		report := s.Validate()
		return output{Title: report.Summary(), Lines: report.Lines()}

	case "dirty":
		dirty := s.Store.Dirty()
		if len(dirty) == 0 {
			return output{Title: "no unsaved changes"}
		}
		out := output{Title: "unsaved: " + joinKinds(dirty)}
		for _, kind := range dirty {
			if at, ok := s.LastSaved(ctx, kind); ok {
				out.Lines = append(out.Lines, fmt.Sprintf("• %s last saved %s", kind, at.Format(time.DateTime)))
			} else {
				out.Lines = append(out.Lines, fmt.Sprintf("• %s never saved", kind))
			}
		}
		return out

	case "save":
		saved, err := s.Save(ctx)
		out := output{Title: "saved: " + joinKinds(saved), Err: err}
		if len(saved) == 0 && err == nil {
			out.Title = "nothing to save"
		}
		for _, kind := range saved {
			if at, ok := s.LastSaved(ctx, kind); ok {
				out.Lines = append(out.Lines, fmt.Sprintf("• %s at %s", kind, at.Format(time.TimeOnly)))
			}
		}
		return out

	case "autosave":
		written, err := s.Autosave(ctx)
		out := output{Title: "drafted: " + joinKinds(written), Err: err}
		if len(written) == 0 && err == nil {
			out.Title = "nothing to draft"
		}
		return out
	}

	return output{Title: cmd, Err: fmt.Errorf("unknown command %q (try help)", cmd)}
}

func parseKind(s string) (asset.Kind, error) {
	kind, ok := asset.ParseKind(s)
	if !ok || kind == asset.Flow {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return kind, nil
}

func joinKinds(kinds []asset.Kind) string {
	if len(kinds) == 0 {
		return "none"
	}
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
