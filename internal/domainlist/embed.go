package domainlist

import (
	_ "embed"
	"strings"
)

//go:embed disposable.txt
var rawDisposable string

var disposableSet map[string]struct{}

func init() {
	disposableSet = make(map[string]struct{})
	for _, line := range strings.Split(rawDisposable, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			disposableSet[strings.ToLower(line)] = struct{}{}
		}
	}
}
