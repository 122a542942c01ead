package item

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zulandar/waybill/internal/models"
)

// Status history is recorded in a fenced turtle block appended to the
// item file:
//
//	```turtle
//	@prefix kb: <https://waybill.dev/kanban/> .
//	@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
//
//	<> kb:statusChange [
//	    kb:status kb:ready ;
//	    kb:at "2024-01-15T10:30:00"^^xsd:dateTime ;
//	    kb:by "alice" ;
//	  ] .
//	```
//
// Each move appends another blank node to the same block.

const historyPrefixes = "@prefix kb: <https://waybill.dev/kanban/> .\n@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n"

var (
	historyBlockPattern = regexp.MustCompile(
		"(?s)```turtle\n" + regexp.QuoteMeta(historyPrefixes) + `\n<> kb:statusChange(.*?)\.\n` + "```")
	historyEntryPattern = regexp.MustCompile(
		`kb:status kb:(\w+)\s*;\s*kb:at "([^"]+)"(?:\^\^xsd:dateTime)?\s*;\s*kb:by "([^"]+)"`)
)

// AppendStatusChange records a status change in the item file content,
// extending an existing history block or starting one.
func AppendStatusChange(content string, change models.StatusChange) string {
	entry := fmt.Sprintf("    kb:status kb:%s ;\n    kb:at %q^^xsd:dateTime ;\n    kb:by %q ;",
		change.Status, change.At.Format(timestampLayout), change.By)

	if m := historyBlockPattern.FindStringSubmatchIndex(content); m != nil {
		existing := strings.TrimRight(strings.TrimSpace(content[m[2]:m[3]]), " ;")
		block := fmt.Sprintf("```turtle\n%s\n<> kb:statusChange %s,\n  [\n%s\n  ] .\n```",
			historyPrefixes, existing, entry)
		return content[:m[0]] + block + content[m[1]:]
	}

	block := fmt.Sprintf("```turtle\n%s\n<> kb:statusChange [\n%s\n  ] .\n```",
		historyPrefixes, entry)
	return strings.TrimRight(content, "\n") + "\n\n" + block + "\n"
}

// ParseStatusHistory extracts the ordered status change records from
// the item file content. Entries with unparsable timestamps are
// dropped.
func ParseStatusHistory(content string) []models.StatusChange {
	var history []models.StatusChange
	for _, block := range regexp.MustCompile("(?s)```turtle\n(.*?)```").FindAllStringSubmatch(content, -1) {
		for _, m := range historyEntryPattern.FindAllStringSubmatch(block[1], -1) {
			at, err := time.Parse(timestampLayout, m[2])
			if err != nil {
				continue
			}
			history = append(history, models.StatusChange{Status: m[1], At: at, By: m[3]})
		}
	}
	return history
}
