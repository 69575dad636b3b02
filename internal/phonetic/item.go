package phonetic

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"zrcbench/internal/evalerr"
)

// loadItems parses an ABX item file. The first line is a header starting
// with '#'; every following line is
// "<file> <onset> <offset> <phone> <prev> <next> <speaker>".
func loadItems(path string) ([]token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open item file: %w", err)
	}
	defer f.Close()

	var tokens []token
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if lineNo == 1 && strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 7 {
			return nil, &evalerr.FormatError{
				Line:    lineNo,
				Content: line,
				Reason:  "want 7 fields: file onset offset phone prev next speaker",
			}
		}
		onset, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, &evalerr.FormatError{Line: lineNo, Content: line, Reason: "onset must be a float"}
		}
		offset, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, &evalerr.FormatError{Line: lineNo, Content: line, Reason: "offset must be a float"}
		}
		if offset <= onset {
			return nil, &evalerr.FormatError{Line: lineNo, Content: line, Reason: "offset must exceed onset"}
		}
		tokens = append(tokens, token{
			file:    fields[0],
			onset:   onset,
			offset:  offset,
			phone:   fields[3],
			prev:    fields[4],
			next:    fields[5],
			speaker: fields[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read item file: %w", err)
	}
	return tokens, nil
}
