package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

var levelTags = map[string]string{
	"trace": "TRC",
	"debug": "DBG",
	"info":  "INF",
	"warn":  "WRN",
	"error": "ERR",
	"fatal": "FTL",
	"panic": "PNC",
}

var levelColors = map[string]string{
	"debug": "36",
	"info":  "32",
	"warn":  "33",
	"error": "31",
	"fatal": "35",
}

// consoleWriter renders "[SVC][INF] message key:value" lines.
func consoleWriter(out io.Writer, service string, noColor bool) zerolog.ConsoleWriter {
	paint := func(code, s string) string {
		if noColor || code == "" {
			return s
		}
		return "\033[" + code + "m" + s + "\033[0m"
	}
	prefix := ""
	if len(service) >= 3 && service != "default" {
		prefix = paint("34", "["+strings.ToUpper(service[:3])+"]")
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			lvl := fmt.Sprint(i)
			tag, ok := levelTags[lvl]
			if !ok {
				tag = strings.ToUpper(lvl)
			}
			return prefix + paint(levelColors[lvl], "["+tag+"]")
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprint(i) + ":" },
	}
}
