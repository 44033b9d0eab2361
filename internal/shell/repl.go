// Package shell provides the interactive imgstore REPL: a liner-backed
// prompt loop over a single open store, dispatching insert/read/delete/gc/
// export commands.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/peterh/liner"

	"github.com/nicolasduc/imgstore/pkg/archive"
	"github.com/nicolasduc/imgstore/pkg/logging"
	"github.com/nicolasduc/imgstore/pkg/store"
)

var (
	// errUnclosedQuote is returned when a quoted argument is never closed.
	errUnclosedQuote = errors.New("unclosed quote in command")
	// errTrailingEscape is returned when a line ends in a bare backslash.
	errTrailingEscape = errors.New("trailing escape character in command")
)

// splitCommandLine breaks a line typed at the imgstore> prompt into a
// command and its arguments, so that a path containing spaces can be
// quoted (insert img.jpg "my photo.jpg") the same way it would be on a
// shell command line. Single quotes take everything literally; double
// quotes allow \", \\, \$ and \` escapes; a backslash outside quotes
// escapes the next rune.
func splitCommandLine(line string) ([]string, error) {
	if line == "" {
		return []string{}, nil
	}

	var words []string
	var cur strings.Builder
	var inSingle, inDouble, sawQuotes bool

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '\\' && !inSingle {
			if i+1 >= len(runes) {
				return nil, errTrailingEscape
			}
			i++
			next := runes[i]
			if inDouble {
				switch next {
				case '"', '\\', '$', '`':
					cur.WriteRune(next)
				default:
					cur.WriteRune('\\')
					cur.WriteRune(next)
				}
			} else {
				cur.WriteRune(next)
			}
			continue
		}

		if ch == '\'' && !inDouble {
			inSingle = !inSingle
			sawQuotes = true
			continue
		}
		if ch == '"' && !inSingle {
			inDouble = !inDouble
			sawQuotes = true
			continue
		}

		if unicode.IsSpace(ch) && !inSingle && !inDouble {
			if cur.Len() > 0 || sawQuotes {
				words = append(words, cur.String())
				cur.Reset()
				sawQuotes = false
			}
			continue
		}

		cur.WriteRune(ch)
	}

	if inSingle || inDouble {
		return nil, errUnclosedQuote
	}
	if cur.Len() > 0 || sawQuotes {
		words = append(words, cur.String())
	}
	return words, nil
}

// REPL is the interactive command loop over a single open store.
type REPL struct {
	store *store.Store
	path  string
	liner *liner.State
}

// Run opens path read-write and starts an interactive shell over it. It
// blocks until the user exits or the input stream ends.
func Run(path string) error {
	s, err := store.Open(path, store.OpenReadWrite, logging.NewLogger("shell", logging.GetLogLevel(), os.Stderr))
	if err != nil {
		return err
	}
	defer s.Close()

	r := &REPL{store: s, path: path}
	return r.run()
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".imgstore_history")
}

func (r *REPL) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("imgstore shell - %s\n", r.path)
	fmt.Println("Type 'help' for available commands.")

	for {
		line, err := r.liner.Prompt("imgstore> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		words, err := splitCommandLine(line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		r.liner.AppendHistory(line)

		cmd, args := words[0], words[1:]
		r.dispatch(cmd, args)
		if cmd == "exit" || cmd == "quit" || cmd == "q" {
			break
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		r.liner.WriteHistory(f)
		f.Close()
	}
}

func (r *REPL) dispatch(cmd string, args []string) {
	switch cmd {
	case "exit", "quit", "q":
		fmt.Println("Bye!")
	case "help", "?":
		r.printHelp()
	case "list", "ls":
		r.store.WriteListText(os.Stdout)
	case "insert":
		r.cmdInsert(args)
	case "read":
		r.cmdRead(args)
	case "delete", "del":
		r.cmdDelete(args)
	case "gc":
		r.cmdGC(args)
	case "export":
		r.cmdExport(args)
	default:
		fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}
}

func (r *REPL) cmdInsert(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: insert <img_id> <path.jpg>")
		return
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := r.store.Insert(args[0], data); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("Inserted %s\n", args[0])
}

func (r *REPL) cmdRead(args []string) {
	if len(args) != 3 {
		fmt.Println("usage: read <img_id> <thumb|small|orig> <output.jpg>")
		return
	}
	res, err := parseResolution(args[1])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	data, err := r.store.Read(args[0], res)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := os.WriteFile(args[2], data, 0o644); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("Wrote %s (%d bytes)\n", args[2], len(data))
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: delete <img_id>")
		return
	}
	if err := r.store.Delete(args[0]); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("Deleted %s\n", args[0])
}

func (r *REPL) cmdGC(args []string) {
	audit := ""
	if len(args) == 1 {
		audit = args[0]
	}
	if err := r.store.Compact(store.CompactOptions{AuditTrailPath: audit}); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Compaction complete")
}

func (r *REPL) cmdExport(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Println("usage: export <archive> [gzip|bzip2]")
		return
	}
	codecName := ""
	if len(args) == 2 {
		codecName = args[1]
	}
	codec, err := archive.ParseCodec(codecName)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := r.store.Export(args[0], codec); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("Exported to %s\n", args[0])
}

func (r *REPL) printHelp() {
	fmt.Println(`Available commands:
  list                                  list images
  insert <img_id> <path.jpg>            insert an image
  read <img_id> <res> <out.jpg>         read at resolution thumb|small|orig
  delete <img_id>                       delete an image
  gc [audit.tar.bz2]                    compact the store
  export <archive> [gzip|bzip2]         export all originals to a tar archive
  help                                  show this message
  exit                                  leave the shell`)
}

func (r *REPL) completer(line string) []string {
	commands := []string{"list", "insert", "read", "delete", "gc", "export", "help", "exit"}
	var out []string
	for _, c := range commands {
		if len(line) <= len(c) && c[:len(line)] == line {
			out = append(out, c)
		}
	}
	return out
}

func parseResolution(name string) (int, error) {
	switch name {
	case "thumb", "thumbnail", "0":
		return store.ResThumb, nil
	case "small", "1":
		return store.ResSmall, nil
	case "orig", "original", "2":
		return store.ResOrig, nil
	default:
		if n, err := strconv.Atoi(name); err == nil {
			return n, nil
		}
		return 0, fmt.Errorf("unknown resolution %q", name)
	}
}
