package testutil

import (
	"bufio"
	"os"
	"strings"
)

// LoadSkipList loads a skip list file (one fixture name per line, # for
// comments). A missing file is an empty list.
func LoadSkipList(path string) (map[string]bool, error) {
	skipList := make(map[string]bool)

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return skipList, nil
	}
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		skipList[line] = true
	}

	return skipList, scanner.Err()
}
