package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MatMasIt/birthdaybot/internal/datemath"
	"github.com/MatMasIt/birthdaybot/internal/domain"
)

// DateLayout is the only date format accepted from users (DD/MM/YYYY;
// single-digit day and month are tolerated).
const DateLayout = "2/1/2006"

const displayLayout = "02/01/2006"

// ViewCommand is the command prefix that selects a record.
const ViewCommand = "/view_bd_"

// escapeMD escapes the characters that open entities in Telegram's legacy
// Markdown.
func escapeMD(s string) string {
	r := strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")
	return r.Replace(s)
}

// bold renders s in bold. Legacy Markdown has no escapes inside an entity,
// so the entity is closed around every special character: "A_B" becomes
// *A*\_*B*.
func bold(s string) string {
	var b, seg strings.Builder
	flush := func() {
		if seg.Len() > 0 {
			b.WriteString("*" + seg.String() + "*")
			seg.Reset()
		}
	}
	for _, r := range s {
		switch r {
		case '_', '*', '`', '[':
			flush()
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			seg.WriteRune(r)
		}
	}
	flush()
	return b.String()
}

func plainName(b domain.Birthday) string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

func fullName(b domain.Birthday) string {
	return escapeMD(plainName(b))
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// nextIn renders the output of datemath.Remaining.
func nextIn(months, days int) string {
	switch {
	case months == 0 && days == 0:
		return "today"
	case months == 0:
		return plural(days, "day")
	case days == 0:
		return plural(months, "month")
	default:
		return plural(months, "month") + " and " + plural(days, "day")
	}
}

func describe(b domain.Birthday, today time.Time) string {
	months, days := datemath.Remaining(b.Birth, today)
	return fmt.Sprintf("%s %s\n    *%d* years old\n    next in *%s*",
		fullName(b), b.Birth.Format(displayLayout), datemath.Age(b.Birth, today), nextIn(months, days))
}

func listEntry(b domain.Birthday, today time.Time) string {
	return "• " + describe(b, today) + "\n    " + escapeMD(ViewCommand+strconv.FormatInt(b.ID, 10))
}
