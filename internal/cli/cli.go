package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status   *StatusCommand
	Visit    *VisitCommand
	Title    *TitleCommand
	Remove   *RemoveCommand
	Search   *SearchCommand
	Complete *CompleteCommand
	Prune    *PruneCommand
	Purge    *PurgeCommand
	Watch    *WatchCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "visitlog"
	parser.LongDescription = "Local browsing history: record visits, expire them, search and complete."

	cmds := &commands{
		Status:   &StatusCommand{globals: &globals, version: version},
		Visit:    &VisitCommand{globals: &globals},
		Title:    &TitleCommand{globals: &globals},
		Remove:   &RemoveCommand{globals: &globals},
		Search:   &SearchCommand{globals: &globals},
		Complete: &CompleteCommand{globals: &globals},
		Prune:    &PruneCommand{globals: &globals},
		Purge:    &PurgeCommand{globals: &globals},
		Watch:    &WatchCommand{globals: &globals},
	}

	parser.AddCommand("status", "Show history statistics", "Show history size, time range, retention and storage location.", cmds.Status)
	parser.AddCommand("visit", "Record a visit", "Record a visit to a URL, optionally with its page title.", cmds.Visit)
	parser.AddCommand("title", "Set a visit's title", "Set the title of the most recent visit to a URL.", cmds.Title)
	parser.AddCommand("remove", "Remove a visit", "Remove the most recent visit to a URL.", cmds.Remove)
	parser.AddCommand("search", "Search visits", "Search visits by keyword in URL or title, with optional time filters.", cmds.Search)
	parser.AddCommand("complete", "Suggest URLs for a prefix", "Print location-bar completions for a typed prefix.", cmds.Complete)
	parser.AddCommand("prune", "Apply retention", "Remove visits older than the retention horizon.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL history", "Delete ALL history. Destructive operation with safety prompt.", cmds.Purge)
	parser.AddCommand("watch", "Record visits from stdin", "Record visits read from stdin, one \"URL<TAB>TITLE\" per line, with config hot reload.", cmds.Watch)

	return parser, &globals, cmds
}

// Run is the main entry point for the visitlog CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("visitlog %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
