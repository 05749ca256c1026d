package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const repoURLPrompt = "Enter a public code repository URL: "

// promptRepoURL asks for a repository URL on out and reads one line from in.
// An empty answer or end of input returns "".
func promptRepoURL(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, repoURLPrompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read repository URL: %w", err)
	}
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(out)
	}
	return strings.TrimSpace(line), nil
}
