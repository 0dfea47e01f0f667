package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"bulkgen/internal/bulk"
)

// extractprompts turns pasted model output or several saved prompt arrays
// into one JSON array ready for a bulk submit.
func main() {
	merge := flag.Bool("merge", false, "input is a sequence of JSON arrays to concatenate instead of text containing text [...] arrays")
	out := flag.String("o", "", "output file (defaults to stdout)")
	flag.Parse()

	// stdout carries the JSON result.
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "extractprompts").Logger()

	input, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "extractprompts: %v\n", err)
		os.Exit(1)
	}

	var prompts []string
	if *merge {
		prompts, err = bulk.MergePromptArrays(bytes.NewReader(input))
		if err != nil {
			fmt.Fprintf(os.Stderr, "extractprompts: %v\n", err)
			os.Exit(1)
		}
	} else {
		prompts = bulk.ExtractTextArrays(string(input))
		if len(prompts) == 0 {
			fmt.Fprintln(os.Stderr, "extractprompts: no text [...] arrays found")
			os.Exit(1)
		}
	}

	if err := writeJSON(*out, prompts); err != nil {
		fmt.Fprintf(os.Stderr, "extractprompts: %v\n", err)
		os.Exit(1)
	}
	logger.Info().Int("prompts", len(prompts)).Bool("merge", *merge).Msg("extractprompts: done")
}

// readInput concatenates the named files, or reads stdin when none are given.
func readInput(paths []string) ([]byte, error) {
	if len(paths) == 0 {
		return io.ReadAll(os.Stdin)
	}
	var buf bytes.Buffer
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func writeJSON(path string, prompts []string) error {
	w := io.Writer(os.Stdout)
	var f *os.File
	if path != "" {
		var err error
		if f, err = os.Create(path); err != nil {
			return err
		}
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(prompts); err != nil {
		if f != nil {
			f.Close()
		}
		return err
	}
	if f != nil {
		return f.Close()
	}
	return nil
}
