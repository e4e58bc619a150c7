package smtpconn

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/optimode/verifykit/types"
)

// Reply is one parsed SMTP server response, possibly multi-line.
type Reply struct {
	Code     int
	Enhanced types.EnhancedCode
	Text     string // all lines joined with " | ", status prefixes stripped
}

func (r Reply) Success() bool   { return r.Code >= 200 && r.Code < 300 }
func (r Reply) Temporary() bool { return r.Code >= 400 && r.Code < 500 }
func (r Reply) Permanent() bool { return r.Code >= 500 && r.Code < 600 }

var enhancedRe = regexp.MustCompile(`^([245])\.(\d{1,3})\.(\d{1,3})\b`)

// readReply reads lines until a final (non "NNN-") line. The reply code
// and the optional RFC 3463 enhanced code come from the first line.
func readReply(r *bufio.Reader) (Reply, error) {
	var lines []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return Reply{}, fmt.Errorf("read reply: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return Reply{}, errors.New("reply line too short")
		}
		lines = append(lines, line)
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}

	code, err := strconv.Atoi(lines[0][:3])
	if err != nil {
		return Reply{}, fmt.Errorf("bad reply code %q", lines[0][:3])
	}

	reply := Reply{Code: code}
	texts := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(line) > 4 {
			texts = append(texts, line[4:])
		}
	}
	reply.Text = strings.Join(texts, " | ")

	if len(texts) > 0 {
		if m := enhancedRe.FindStringSubmatch(texts[0]); m != nil {
			reply.Enhanced = types.EnhancedCode{
				Class:   atoi(m[1]),
				Subject: atoi(m[2]),
				Detail:  atoi(m[3]),
			}
		}
	}
	return reply, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
