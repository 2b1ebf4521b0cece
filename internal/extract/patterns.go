package extract

import (
	"regexp"
	"strings"
)

// rule binds one compiled pattern to a record field. Rules run in table
// order; a rule is skipped once its field is set, and its assign hook can
// reject a captured value (an unparsable date, an identifier without
// digits). skip excludes lines the pattern would misread.
type rule struct {
	name    string
	pattern *regexp.Regexp
	group   int
	skip    *regexp.Regexp
	isSet   func(*Record) bool
	assign  func(*Record, string) bool
}

var (
	dateShape      = `\d{1,4}[./-]\d{1,2}[./-]\d{2,4}`
	timeShape      = `\d{1,2}:\d{2}(?::\d{2})?\s*(?:[AaPp]\.?[Mm]\.?)?`
	monthDayShape  = `[A-Za-z]{3,9}\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}`
	dayMonthShape  = `\d{1,2}(?:st|nd|rd|th)?\.?\s+[A-Za-z]{3,9}\.?,?\s+\d{4}`
	duePrefixCheck = regexp.MustCompile(`(?i)\bdue\b`)
)

var fieldRules = []rule{
	{
		name:    "invoiceNumber",
		pattern: regexp.MustCompile(`(?i)\b(?:invoice|inv|receipt|rcpt)[-.\s]*(?:no|num|number)?[-\s:#.]*([A-Za-z0-9][A-Za-z0-9/-]{2,})`),
		group:   1,
		isSet:   func(r *Record) bool { return r.InvoiceNumber != "" },
		assign:  assignIdentifier(func(r *Record, v string) { r.InvoiceNumber = v }),
	},
	{
		name:    "transactionId",
		pattern: regexp.MustCompile(`(?i)\b(?:transaction|trans|txn)[-.\s]*(?:id|no|num|number)?[-\s:#.]*([A-Za-z0-9][A-Za-z0-9-]{3,})`),
		group:   1,
		isSet:   func(r *Record) bool { return r.TransactionID != "" },
		assign:  assignIdentifier(func(r *Record, v string) { r.TransactionID = v }),
	},
	{
		name:    "authorizationCode",
		pattern: regexp.MustCompile(`(?i)\b(?:auth(?:orization)?|approval)[-.\s]*(?:code|no|num)?[-\s:#.]*([A-Za-z0-9]{4,})`),
		group:   1,
		isSet:   func(r *Record) bool { return r.AuthorizationCode != "" },
		assign:  assignIdentifier(func(r *Record, v string) { r.AuthorizationCode = v }),
	},
	{
		name:    "dueDate",
		pattern: regexp.MustCompile(`(?i)\b(?:due\s+date|payment\s+due|due\s+by|due)\s*[:#.]?\s*(` + dateShape + `)`),
		group:   1,
		isSet:   func(r *Record) bool { return r.DueDate != "" },
		assign:  assignDate(func(r *Record, v string) { r.DueDate = v }),
	},
	{
		name:    "dateLabeled",
		pattern: regexp.MustCompile(`(?i)\b(?:date|dated)\s*[:#.]?\s*(` + dateShape + `)`),
		group:   1,
		skip:    duePrefixCheck,
		isSet:   func(r *Record) bool { return r.Date != "" },
		assign:  assignDate(func(r *Record, v string) { r.Date = v }),
	},
	{
		name:    "dateNumeric",
		pattern: regexp.MustCompile(`\b(` + dateShape + `)\b`),
		group:   1,
		skip:    duePrefixCheck,
		isSet:   func(r *Record) bool { return r.Date != "" },
		assign:  assignDate(func(r *Record, v string) { r.Date = v }),
	},
	{
		name:    "dateMonthFirst",
		pattern: regexp.MustCompile(`\b(` + monthDayShape + `)\b`),
		group:   1,
		skip:    duePrefixCheck,
		isSet:   func(r *Record) bool { return r.Date != "" },
		assign:  assignDate(func(r *Record, v string) { r.Date = v }),
	},
	{
		name:    "dateDayFirst",
		pattern: regexp.MustCompile(`\b(` + dayMonthShape + `)\b`),
		group:   1,
		skip:    duePrefixCheck,
		isSet:   func(r *Record) bool { return r.Date != "" },
		assign:  assignDate(func(r *Record, v string) { r.Date = v }),
	},
	{
		name:    "timeLabeled",
		pattern: regexp.MustCompile(`(?i)\btime\s*[:#.]?\s*(` + timeShape + `)`),
		group:   1,
		isSet:   func(r *Record) bool { return r.Time != "" },
		assign:  assignTime(func(r *Record, v string) { r.Time = v }),
	},
	{
		name:    "timeBare",
		pattern: regexp.MustCompile(`\b(` + timeShape + `)\b`),
		group:   1,
		isSet:   func(r *Record) bool { return r.Time != "" },
		assign:  assignTime(func(r *Record, v string) { r.Time = v }),
	},
	{
		name:    "phoneLabeled",
		pattern: regexp.MustCompile(`(?i)\b(?:phone|tel(?:ephone)?|call)\s*[:#.]?\s*(\+?[\d\s().-]{7,25})`),
		group:   1,
		isSet:   func(r *Record) bool { return r.VendorPhone != "" },
		assign:  assignPhone,
	},
	{
		name:    "phoneBare",
		pattern: regexp.MustCompile(`(\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4})\b`),
		group:   1,
		isSet:   func(r *Record) bool { return r.VendorPhone != "" },
		assign:  assignPhone,
	},
	{
		name:    "vendorEmail",
		pattern: regexp.MustCompile(`\b([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})\b`),
		group:   1,
		isSet:   func(r *Record) bool { return r.VendorEmail != "" },
		assign: func(r *Record, v string) bool {
			r.VendorEmail = v
			return true
		},
	},
}

// applyRules runs the rule table in priority order, scanning lines top to
// bottom for each rule. The first accepted capture fills the field.
func (s *parseState) applyRules() {
	for _, ru := range fieldRules {
		if ru.isSet(s.rec) {
			continue
		}
		for i, line := range s.lines {
			if ru.skip != nil && ru.skip.MatchString(line) {
				continue
			}
			m := ru.pattern.FindStringSubmatch(line)
			if m == nil || len(m) <= ru.group {
				continue
			}
			if ru.assign(s.rec, strings.TrimSpace(m[ru.group])) {
				s.used[i] = true
				break
			}
		}
	}
}

func assignIdentifier(set func(*Record, string)) func(*Record, string) bool {
	return func(r *Record, v string) bool {
		if !strings.ContainsAny(v, "0123456789") {
			return false
		}
		if _, isDate := NormalizeDate(v); isDate {
			return false
		}
		set(r, strings.Trim(v, "-/"))
		return true
	}
}

func assignDate(set func(*Record, string)) func(*Record, string) bool {
	return func(r *Record, v string) bool {
		normalized, ok := NormalizeDate(v)
		if !ok {
			return false
		}
		set(r, normalized)
		return true
	}
}

func assignTime(set func(*Record, string)) func(*Record, string) bool {
	return func(r *Record, v string) bool {
		normalized, ok := NormalizeTime(v)
		if !ok {
			return false
		}
		set(r, normalized)
		return true
	}
}

func assignPhone(r *Record, v string) bool {
	v = strings.Trim(v, " \t.-")
	digits := 0
	for _, c := range v {
		if '0' <= c && c <= '9' {
			digits++
		}
	}
	if digits < 7 || digits > 15 {
		return false
	}
	r.VendorPhone = v
	return true
}
