package main

import (
	"fmt"
	"io"

	"github.com/dooshek/honey/internal/archive"
	"github.com/dooshek/honey/internal/generation"
	"github.com/dooshek/honey/internal/store"
	"github.com/fatih/color"
)

var (
	titleColor = color.New(color.FgGreen, color.Bold)
	labelColor = color.New(color.FgCyan)
)

func printField(out io.Writer, label string, value interface{}) {
	labelColor.Fprintf(out, "  %-10s", label)
	fmt.Fprintf(out, " %v\n", value)
}

func printResult(out io.Writer, res *generation.Result) {
	titleColor.Fprintf(out, "✅ Generated record %d\n", res.RecordID)
	printField(out, "voice:", fmt.Sprintf("%s (%s)", res.Voice.Name, res.Voice.Gender))
	printField(out, "audio:", res.AudioFile)
	printField(out, "symbols:", res.SymbolCount)
	printField(out, "text:", res.Text)
}

// printHistory writes the last n generation records, oldest first
func printHistory(out io.Writer, st *store.Store, ar *archive.Archive, n int) error {
	gens := st.Generations()
	if len(gens) == 0 {
		fmt.Fprintln(out, "ℹ️ No generations yet.")
		return nil
	}
	if n < len(gens) {
		gens = gens[len(gens)-n:]
	}

	voices := map[int]store.Voice{}
	for _, v := range st.Voices() {
		voices[v.ID] = v
	}

	for _, g := range gens {
		titleColor.Fprintf(out, "#%d %s\n", g.ID, g.CreatedAt.Local().Format("2006-01-02 15:04"))

		if c, ok := st.Category(g.CategoryID); ok {
			printField(out, "category:", c.Name)
		}
		if g.NameID != nil {
			if name, ok := st.Name(*g.NameID); ok {
				printField(out, "name:", name.Name)
			}
		}
		printField(out, "voice:", voices[g.VoiceID].Name)
		printField(out, "audio:", g.AudioFile)
		printField(out, "symbols:", g.SymbolCount)

		text, ok, err := ar.Text(g.ID)
		if err != nil {
			return err
		}
		if ok {
			printField(out, "text:", text)
		}
	}
	return nil
}
