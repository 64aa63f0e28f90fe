package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fedramphub/internal/controlid"
	"fedramphub/internal/hub"
	"fedramphub/internal/search"
)

const shellHelp = `commands:
  search <query>        search controls with the current options
  suggest <partial>     complete a control id
  show <id>             show one control
  crosswalk [baseline]  compare KSI controls with a baseline (default Low)
  set fields <list>     e.g. set fields id,name,description
  set fuzzy on|off
  set case on|off
  options               print the current options
  history               recent searches
  save <query>          save a query with the current options
  saved                 list saved queries
  run <query>           run a saved query with its options
  unsave <query>        delete a saved query
  reload                rebuild the catalog from disk
  help
  quit`

func shellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive search session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), a.svc, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

type shell struct {
	svc   *hub.Service
	out   io.Writer
	opts  search.Options
	limit int
}

// runShell reads one command per line until quit or end of input. Command
// errors are printed and the session continues.
func runShell(ctx context.Context, svc *hub.Service, in io.Reader, out io.Writer) error {
	opts, err := svc.SearchOptions()
	if err != nil {
		return err
	}
	if _, err := svc.Snapshot(ctx); err != nil {
		return err
	}
	sh := &shell{svc: svc, out: out, opts: opts, limit: svc.Config().ResultLimit}

	interactive := in == os.Stdin
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		if name == "quit" || name == "exit" {
			return nil
		}
		if err := sh.exec(ctx, strings.ToLower(name), arg); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func (sh *shell) exec(ctx context.Context, name, arg string) error {
	switch name {
	case "search":
		return sh.search(ctx, arg, sh.opts)
	case "suggest":
		ids, err := sh.svc.Suggest(ctx, arg, 0)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(sh.out, "no suggestions")
			return nil
		}
		fmt.Fprintln(sh.out, strings.Join(ids, "  "))
	case "show":
		return sh.show(ctx, arg)
	case "crosswalk":
		if arg == "" {
			arg = "Low"
		}
		res, err := sh.svc.Crosswalk(ctx, arg)
		if err != nil {
			return err
		}
		renderCrosswalk(sh.out, res, "KSI", arg+" Baseline")
	case "set":
		return sh.set(arg)
	case "options":
		fmt.Fprintf(sh.out, "fields=%v fuzzy=%t case=%t\n", sh.opts.Fields, sh.opts.Fuzzy, sh.opts.CaseSensitive)
	case "history":
		entries, err := sh.svc.Session().History()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(sh.out, "no history")
			return nil
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Query, strconv.Itoa(e.ResultCount), e.CreatedAt})
		}
		renderTable(sh.out, []string{"Query", "Results", "When"}, rows)
	case "save":
		added, err := sh.svc.Session().SaveSearch(arg, sh.opts)
		if err != nil {
			return err
		}
		if added {
			fmt.Fprintf(sh.out, "saved %q\n", arg)
		} else {
			fmt.Fprintf(sh.out, "%q is already saved\n", arg)
		}
	case "saved":
		saved, err := sh.svc.Session().SavedSearches()
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			fmt.Fprintln(sh.out, "no saved searches")
			return nil
		}
		rows := make([][]string, 0, len(saved))
		for _, s := range saved {
			rows = append(rows, []string{s.Query, s.Options})
		}
		renderTable(sh.out, []string{"Query", "Options"}, rows)
	case "run":
		s, err := sh.svc.Session().GetSaved(arg)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("no saved search %q", arg)
		}
		var opts search.Options
		if err := json.Unmarshal([]byte(s.Options), &opts); err != nil {
			return fmt.Errorf("saved options for %q: %w", arg, err)
		}
		return sh.search(ctx, s.Query, opts)
	case "unsave":
		removed, err := sh.svc.Session().DeleteSaved(arg)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no saved search %q", arg)
		}
		fmt.Fprintf(sh.out, "removed %q\n", arg)
	case "reload":
		snap, err := sh.svc.Reload(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "catalog reloaded: %d controls\n", snap.Catalog.Len())
	case "help":
		fmt.Fprintln(sh.out, shellHelp)
	default:
		return fmt.Errorf("unknown command %q, try help", name)
	}
	return nil
}

func (sh *shell) search(ctx context.Context, query string, opts search.Options) error {
	if query == "" {
		return fmt.Errorf("search needs a query")
	}
	results, err := sh.svc.Search(ctx, query, opts, search.Filter{})
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%d controls\n", len(results))
	renderResults(sh.out, search.Limit(results, sh.limit))
	return nil
}

func (sh *shell) show(ctx context.Context, arg string) error {
	id, err := controlid.Normalize(arg)
	if err != nil {
		return err
	}
	cat, err := sh.svc.Catalog(ctx)
	if err != nil {
		return err
	}
	entry, ok := cat.Get(id)
	if !ok {
		return fmt.Errorf("control %s not found", id)
	}
	_, related, err := sh.svc.Indicators(ctx)
	if err != nil {
		return err
	}
	renderEntry(sh.out, entry, indicatorsFor(related, id))
	return nil
}

func (sh *shell) set(arg string) error {
	key, value, _ := strings.Cut(arg, " ")
	key, value = strings.ToLower(key), strings.TrimSpace(value)
	switch key {
	case "fields":
		fields, err := search.ParseFields(strings.Split(value, ","))
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return fmt.Errorf("set fields needs at least one field")
		}
		sh.opts.Fields = fields
	case "fuzzy", "case":
		on, err := parseSwitch(value)
		if err != nil {
			return err
		}
		if key == "fuzzy" {
			sh.opts.Fuzzy = on
		} else {
			sh.opts.CaseSensitive = on
		}
	default:
		return fmt.Errorf("unknown option %q", key)
	}
	fmt.Fprintf(sh.out, "fields=%v fuzzy=%t case=%t\n", sh.opts.Fields, sh.opts.Fuzzy, sh.opts.CaseSensitive)
	return nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", v)
}
