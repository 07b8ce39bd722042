// Package shell implements the line oriented command interface used to
// inspect and control the radio from a console.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/shlex"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrWrongArgument  = errors.New("argument out of range")
)

// Command is one entry of the command table. Run receives the arguments
// following the command name. Help and Status are optional and are called
// by the built-in help and status commands.
type Command struct {
	Name   string
	Run    func(w io.Writer, args []string) error
	Help   func(w io.Writer)
	Status func(w io.Writer)
}

// Shell dispatches command lines to registered commands
type Shell struct {
	mu       sync.RWMutex
	commands map[string]*Command
	out      io.Writer
}

// New creates a Shell writing its output to out
func New(out io.Writer) *Shell {
	return &Shell{
		commands: make(map[string]*Command),
		out:      out,
	}
}

// Register adds a command to the table. A later registration with the same
// name replaces the earlier one.
func (s *Shell) Register(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cmd
	s.commands[cmd.Name] = &c
}

// names returns the registered command names in order
func (s *Shell) names() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute parses and runs one command line. Empty lines are ignored.
func (s *Shell) Execute(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch args[0] {
	case "help":
		s.printHelp()
		return nil
	case "status":
		s.printStatus()
		return nil
	}

	cmd, ok := s.commands[args[0]]
	if !ok || cmd.Run == nil {
		fmt.Fprintf(s.out, "*** Failed or unknown command: %s\n", line)
		return ErrUnknownCommand
	}
	return cmd.Run(s.out, args[1:])
}

// Run reads command lines from r until EOF or a read error. Command errors
// are reported on the output and do not stop the loop.
func (s *Shell) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if err := s.Execute(line); err != nil && !errors.Is(err, ErrUnknownCommand) && !errors.Is(err, ErrWrongArgument) {
			fmt.Fprintf(s.out, "*** %v\n", err)
		}
	}
	return scanner.Err()
}

func (s *Shell) printHelp() {
	writeHelp(s.out, "help|status", "Print help or status information")
	for _, name := range s.names() {
		if h := s.commands[name].Help; h != nil {
			h(s.out)
		}
	}
}

func (s *Shell) printStatus() {
	for _, name := range s.names() {
		if st := s.commands[name].Status; st != nil {
			st(s.out)
		}
	}
}

func writeHelp(w io.Writer, cmd, text string) {
	fmt.Fprintf(w, "%-20s; %s\n", cmd, text)
}

func writeStatus(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%-14s: %s\n", key, value)
}
