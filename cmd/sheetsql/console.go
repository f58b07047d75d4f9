package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sheetsql/sheets-client-go/gviz"
)

const (
	prompt         = "sql> "
	historyFile    = ".sheetsql_history"
	goodbyeMessage = "See ya!"
)

type querier interface {
	ExecuteSQLContext(ctx context.Context, query string) (*gviz.Response, error)
}

// lineReader is satisfied by *readline.Instance.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// openLineReader is replaced in tests.
var openLineReader = newLineReader

// newLineReader reads from a readline prompt when stdin is a terminal and line
// by line otherwise.
func newLineReader(history string) (lineReader, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return &scannerReader{scanner: bufio.NewScanner(os.Stdin)}, nil
	}
	if history == "" {
		if home, err := os.UserHomeDir(); err == nil {
			history = filepath.Join(home, historyFile)
		}
	}
	return readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
}

type scannerReader struct {
	scanner *bufio.Scanner
}

func (s *scannerReader) Readline() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scannerReader) Close() error {
	return nil
}

type console struct {
	conn  querier
	out   io.Writer
	raise bool
}

// run reads queries until EOF. Query errors are printed and the session goes on
// unless raise is set.
func (c *console) run(ctx context.Context, reader lineReader) error {
	for {
		line, err := reader.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out, goodbyeMessage)
			return nil
		}
		if err != nil {
			return err
		}

		query := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";"))
		if query == "" {
			continue
		}
		if err := c.execute(ctx, query); err != nil {
			if c.raise {
				return err
			}
			fmt.Fprintln(c.out, err)
		}
	}
}

func (c *console) execute(ctx context.Context, query string) error {
	resp, err := c.conn.ExecuteSQLContext(ctx, query)
	if err != nil {
		return err
	}
	for _, warning := range resp.Warnings {
		log.Warnf("%s: %s", warning.Reason, warning.Message)
	}
	return printTable(c.out, resp.Table)
}
