package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// GetSimpleText prints a prompt and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt + "\n> ")
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetFloat reads a line and parses it as a float64.
func GetFloat(reader *bufio.Reader, prompt string) (float64, error) {
	s, err := GetSimpleText(reader, prompt)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
