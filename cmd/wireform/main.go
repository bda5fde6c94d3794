package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	wireform "github.com/wireform/wireform"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "convert":
		convertCmd(os.Args[2:])
	case "lint":
		lintCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "wireform CLI\n\nUsage:\n  wireform convert -from json|yaml -to json|yaml [-in file] [-out file]\n  wireform lint [-from json|yaml] [-max-depth n] [-in file]\n\nNotes:\n  - convert translates value trees between wire formats; stdin/stdout by default.\n  - lint parses a document and checks its nesting depth.")
}

func convertCmd(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	var from, to, in, out string
	fs.StringVar(&from, "from", "json", "input format: json or yaml")
	fs.StringVar(&to, "to", "yaml", "output format: json or yaml")
	fs.StringVar(&in, "in", "", "input file (default stdin)")
	fs.StringVar(&out, "out", "", "output file (default stdout)")
	_ = fs.Parse(args)

	data := readInput(in)
	tree := parseTree(from, data)

	var rendered []byte
	var err error
	switch to {
	case "json":
		rendered, err = wireform.MarshalTree(tree)
	case "yaml":
		rendered, err = yaml.Marshal(denumber(tree))
	default:
		fatalf("unknown output format %q", to)
	}
	if err != nil {
		fatalf("render: %v", err)
	}
	writeOutput(out, rendered)
}

func lintCmd(args []string) {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	var from, in string
	var maxDepth int
	fs.StringVar(&from, "from", "json", "input format: json or yaml")
	fs.StringVar(&in, "in", "", "input file (default stdin)")
	fs.IntVar(&maxDepth, "max-depth", wireform.DefaultMaxDepth, "nesting ceiling")
	_ = fs.Parse(args)

	data := readInput(in)
	tree := parseTree(from, data)
	if d := treeDepth(tree); d > maxDepth {
		fatalf("nesting depth %d exceeds ceiling %d", d, maxDepth)
	}
	fmt.Println("ok")
}

func parseTree(format string, data []byte) any {
	var tree any
	var err error
	switch format {
	case "json":
		tree, err = wireform.JSONTree(data)
	case "yaml":
		tree, err = wireform.YAMLTree(data)
	default:
		fatalf("unknown input format %q", format)
	}
	if err != nil {
		fatalf("parse: %v", err)
	}
	return tree
}

func treeDepth(v any) int {
	switch t := v.(type) {
	case map[string]any:
		max := 0
		for _, e := range t {
			if d := treeDepth(e); d > max {
				max = d
			}
		}
		return 1 + max
	case []any:
		max := 0
		for _, e := range t {
			if d := treeDepth(e); d > max {
				max = d
			}
		}
		return 1 + max
	default:
		return 1
	}
}

// denumber replaces json.Number nodes with real Go numbers so the YAML
// encoder does not render them as strings.
func denumber(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = denumber(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = denumber(e)
		}
		return out
	default:
		return v
	}
}

func readInput(path string) []byte {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatalf("reading stdin: %v", err)
		}
		return data
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf("reading %s: %v", path, err)
	}
	return data
}

func writeOutput(path string, data []byte) {
	if path == "" {
		_, _ = os.Stdout.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Println()
		}
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fatalf("writing %s: %v", path, err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
