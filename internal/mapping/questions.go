package mapping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// QuestionsFile is the name of the remediation file written for unmapped types.
const QuestionsFile = "accounts_mapping_questions.txt"

const (
	questionsTitle  = "Where should these accounts go in GnuCash?"
	answerPrefix    = "Enter the full GnuCash account path here:"
	pathHintPrefix  = "QuickBooks import path:"
	instructionsSep = "================================================================================"
)

const instructions = instructionsSep + `
WARNING: ASCII only (A-Z, 0-9, basic punctuation). Special characters cause failure.
REQUIREMENT: Must start with Assets | Liabilities | Equity | Income | Expenses

Enter full account path using colons: "Income:Service Revenue:Labor"
Save the file and run the conversion again.
`

// ErrUnanswered is returned by ParseQuestions when no question has an answer.
var ErrUnanswered = errors.New("no account paths answered in questions file")

// WriteQuestions writes one question per unmapped type code, with the
// QuickBooks names of the records using it as hints.
func WriteQuestions(w io.Writer, codes []string, records []model.SourceAccountRecord) error {
	names := make(map[string][]string)
	for _, r := range records {
		key := normalizeCode(r.Type)
		names[key] = append(names[key], r.Name)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", questionsTitle)
	for _, code := range codes {
		fmt.Fprintf(bw, "[%s]\n", code)
		for _, n := range names[normalizeCode(code)] {
			fmt.Fprintf(bw, "%s %s\n", pathHintPrefix, n)
		}
		fmt.Fprintf(bw, "%s \n\n", answerPrefix)
	}
	bw.WriteString(instructions)
	return bw.Flush()
}

// ParseQuestions reads a completed questions file into an override File.
// Unanswered questions are skipped; if none is answered ErrUnanswered is
// returned.
func ParseQuestions(r io.Reader) (*File, error) {
	f := &File{AccountTypes: make(map[string]Entry)}
	sc := bufio.NewScanner(r)
	var code string
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, instructionsSep) {
			break
		}
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			code = strings.TrimSpace(line[1 : len(line)-1])
		case strings.HasPrefix(line, answerPrefix) && code != "":
			if err := checkASCII(line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			path := normalizeAnswer(strings.TrimPrefix(line, answerPrefix))
			if path == "" {
				continue
			}
			e := Entry{Type: InferType(path), Destination: path}
			if errs := validateEntry(e); len(errs) > 0 {
				return nil, fmt.Errorf("line %d: %w", lineNo, multierr.Combine(errs...))
			}
			f.AccountTypes[normalizeCode(code)] = e
			code = ""
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading questions: %w", err)
	}
	if len(f.AccountTypes) == 0 {
		return nil, ErrUnanswered
	}
	return f, nil
}

// InferType derives a GnuCash type from an answered account path.
func InferType(path string) model.AccountType {
	segments := strings.Split(path, ":")
	t := model.AccountTypeExpense
	if c, ok := model.ParseCategory(strings.TrimSpace(segments[0])); ok {
		t = c.BaseType()
	}
	last := strings.ToLower(segments[len(segments)-1])
	switch {
	case strings.Contains(last, "receivable"):
		t = model.AccountTypeReceivable
	case strings.Contains(last, "payable"):
		t = model.AccountTypePayable
	}
	return t
}

// ArchiveName returns the next free generational name for a processed
// questions file, e.g. accounts_mapping_questions_v003.txt.
func ArchiveName(dir, suffix string) (string, error) {
	base := strings.TrimSuffix(QuestionsFile, ".txt")
	if suffix != "" {
		base += "_" + suffix
	}
	prefix := base + "_v"

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}
	next := 1
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".txt") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".txt"))
		if err != nil {
			continue
		}
		if n >= next {
			next = n + 1
		}
	}
	return filepath.Join(dir, fmt.Sprintf("%s%03d.txt", prefix, next)), nil
}

func normalizeAnswer(s string) string {
	parts := strings.Split(s, ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Trim(strings.Join(parts, ":"), ":")
}

func checkASCII(line string) error {
	for i, r := range line {
		if r < 32 || r > 126 {
			return fmt.Errorf("non-ASCII character %q at position %d", r, i+1)
		}
	}
	return nil
}
