package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/pretty"
	"golang.org/x/term"
)

// printer writes command results, colorizing JSON on terminals.
type printer struct {
	out   io.Writer
	color bool
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out, color: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// JSON pretty-prints a raw JSON document.
func (p *printer) JSON(raw json.RawMessage) error {
	out := pretty.Pretty(raw)
	if p.color {
		out = pretty.Color(out, nil)
	}
	_, err := p.out.Write(out)
	return err
}

// Value marshals v and prints it as JSON.
func (p *printer) Value(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.JSON(raw)
}

// Line prints a formatted line.
func (p *printer) Line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}
