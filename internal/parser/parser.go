package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	titlePrefix    = "T:"
	notePrefix     = "N:"
	pagePrefix     = "P:"
	documentPrefix = "D:"
	urlPrefix      = "U:"
)

// Entry is one review-worthy passage written in a notes file.
type Entry struct {
	Title    string
	Note     string
	Document string
	Page     int
	URL      string
}

type state int

const (
	seeking state = iota
	readingTitle
	readingNote
	readingField
)

// ParseFile reads a notes file from the given path and extracts all entries.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads notes from an io.Reader. Entries are introduced by "T:" and end
// at the next "T:" or at a "---" line. Titles and notes may span several
// lines; "P:", "D:" and "U:" are single-line fields.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current Entry
	var block []string
	currentState := seeking
	lineNo := 0

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimRight(strings.Join(block, "\n"), "\n")
		switch currentState {
		case readingTitle:
			current.Title = content
		case readingNote:
			current.Note = content
		}
		block = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Title != "" || current.Note != "" {
			entries = append(entries, current)
		}
		current = Entry{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNo++

		if line == "---" {
			finishEntry()
			continue
		}

		prefix, value, ok := splitPrefix(line)
		if !ok {
			if currentState == readingTitle || currentState == readingNote {
				block = append(block, line)
			}
			continue
		}

		flushBlock()
		switch prefix {
		case titlePrefix:
			if currentState != seeking { // A new title always starts a new entry
				finishEntry()
			}
			currentState = readingTitle
			block = append(block, value)
		case notePrefix:
			currentState = readingNote
			block = append(block, value)
		case pagePrefix:
			page, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || page < 0 {
				return nil, fmt.Errorf("line %d: invalid page %q", lineNo, value)
			}
			current.Page = page
			currentState = readingField
		case documentPrefix:
			current.Document = strings.TrimSpace(value)
			currentState = readingField
		case urlPrefix:
			current.URL = strings.TrimSpace(value)
			currentState = readingField
		}
	}

	finishEntry() // Finish the very last entry in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func splitPrefix(line string) (prefix, value string, ok bool) {
	for _, p := range []string{titlePrefix, notePrefix, pagePrefix, documentPrefix, urlPrefix} {
		if strings.HasPrefix(line, p) {
			value = line[len(p):]
			if strings.HasPrefix(value, " ") {
				value = value[1:]
			}
			return p, value, true
		}
	}
	return "", "", false
}
