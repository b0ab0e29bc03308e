package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/presenced/internal/split"
	"github.com/roach88/presenced/internal/store"
	"github.com/roach88/presenced/internal/when"
)

// Handler implements the protocol semantics against one store, independent
// of any transport. The server drives it per session line; the standalone
// command drives it directly from stdin and argv.
type Handler struct {
	store  *store.Store
	engine *split.Engine
}

// NewHandler creates a handler over the given store.
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st, engine: split.New(st)}
}

// Ingest applies one ingestion line to the store.
//
// Grammar: "START <timestamp> <name> [extra tokens...]" or
// "STOP <timestamp> <name>", whitespace-separated, with a token starting
// with "#" ending the line. Empty lines, comment lines, unknown operation
// keywords and otherwise malformed lines are silently ignored - a non-nil
// return is always a storage failure, never bad input.
func (h *Handler) Ingest(ctx context.Context, line string) error {
	tokens := tokenize(line)
	if len(tokens) < 3 {
		if len(tokens) > 0 {
			slog.Debug("ignoring malformed line", "line", line)
		}
		return nil
	}

	ts, err := when.Parse(tokens[1])
	if err != nil {
		slog.Debug("ignoring malformed line", "line", line, "error", err)
		return nil
	}
	name := norm.NFC.String(tokens[2])

	switch tokens[0] {
	case "START":
		return h.start(ctx, ts, name)
	case "STOP":
		return h.stop(ctx, ts, name)
	default:
		slog.Debug("ignoring unknown operation", "op", tokens[0])
		return nil
	}
}

// start opens the interval [ts, +inf) for the person, creating the person on
// first reference. A START for someone already present at ts is a no-op.
func (h *Handler) start(ctx context.Context, ts int64, name string) error {
	id, ok, err := h.store.FindPerson(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		if id, err = h.store.InsertPerson(ctx, name); err != nil {
			return err
		}
	}

	present, err := h.store.PresentAt(ctx, id, ts)
	if err != nil {
		return err
	}
	if present {
		return nil
	}
	return h.store.InsertInterval(ctx, id, ts, when.TimeMax)
}

// stop closes the person's earliest open interval at ts. A STOP for someone
// not present at ts is ignored (the presence-checked policy). A STOP for a
// name never seen before records the retroactive interval [-inf, ts): the
// person evidently was present since before recording began.
func (h *Handler) stop(ctx context.Context, ts int64, name string) error {
	id, ok, err := h.store.FindPerson(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		if id, err = h.store.InsertPerson(ctx, name); err != nil {
			return err
		}
		return h.store.InsertInterval(ctx, id, when.TimeMin, ts)
	}

	present, err := h.store.PresentAt(ctx, id, ts)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	return h.store.CloseEarliestOpen(ctx, id, ts)
}

// Query modes, selected by the line's prefix.
const (
	queryUnion  = iota // default: everyone ever present in the range
	queryAlways        // "+": only those present in every split
	querySplits        // "*": raw splits, one line each
)

// Query answers one query line and returns the full response, echo line
// included. A malformed query yields just the echo line; a non-nil error is
// a storage failure.
//
// Forms:
//
//	<timestamp>                 point query: present names, one per line
//	<timestamp> <timestamp>     range query: union of names
//	+ <timestamp> <timestamp>   range query: always-present names
//	* <timestamp> <timestamp>   range query: raw splits
func (h *Handler) Query(ctx context.Context, line string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", line)

	mode := queryUnion
	rest := line
	switch {
	case strings.HasPrefix(line, "* "):
		mode, rest = querySplits, line[2:]
	case strings.HasPrefix(line, "+ "):
		mode, rest = queryAlways, line[2:]
	}

	tokens := tokenize(rest)
	switch len(tokens) {
	case 1:
		if mode != queryUnion {
			break // prefixed queries take a range
		}
		ts, err := when.Parse(tokens[0])
		if err != nil {
			slog.Debug("ignoring malformed query", "line", line, "error", err)
			break
		}
		if err := h.pointQuery(ctx, &b, ts); err != nil {
			return "", err
		}
	case 2:
		min, err := when.Parse(tokens[0])
		if err != nil {
			slog.Debug("ignoring malformed query", "line", line, "error", err)
			break
		}
		max, err := when.Parse(tokens[1])
		if err != nil {
			slog.Debug("ignoring malformed query", "line", line, "error", err)
			break
		}
		if err := h.rangeQuery(ctx, &b, mode, min, max); err != nil {
			return "", err
		}
	default:
		slog.Debug("ignoring malformed query", "line", line)
	}

	return b.String(), nil
}

// pointQuery lists everyone present at ts, one name per match, in store
// order (interval end ascending, then insertion order).
func (h *Handler) pointQuery(ctx context.Context, b *strings.Builder, ts int64) error {
	matches, err := h.engine.PointMatches(ctx, ts)
	if err != nil {
		return err
	}
	for _, m := range matches {
		name, err := h.store.PersonName(ctx, m.Person)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s\n", name)
	}
	return nil
}

// rangeQuery partitions [min, max) and renders it per mode: the raw splits,
// or the union or intersection of their occupant sets. Names are emitted in
// ascending person id order.
func (h *Handler) rangeQuery(ctx context.Context, b *strings.Builder, mode int, min, max int64) error {
	splits, err := h.engine.Range(ctx, min, max)
	if err != nil {
		return err
	}

	if mode == querySplits {
		for _, sp := range splits {
			fmt.Fprintf(b, "%d", sp.Max-sp.Min)
			for id := range sp.Who.All() {
				name, err := h.store.PersonName(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(b, " %s", name)
			}
			fmt.Fprintf(b, "\n")
		}
		return nil
	}

	who := split.Union(splits)
	if mode == queryAlways {
		who = split.Intersection(splits)
	}
	for id := range who.All() {
		name, err := h.store.PersonName(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s\n", name)
	}
	return nil
}

// tokenize splits a line into whitespace-separated tokens, cutting the line
// at the first token that starts the trailing comment.
func tokenize(line string) []string {
	fields := strings.Fields(line)
	for i, f := range fields {
		if strings.HasPrefix(f, "#") {
			return fields[:i]
		}
	}
	return fields
}
