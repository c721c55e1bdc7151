package sysmdns

import "strings"

// unescapeLabel converts the DNS presentation format of a single label to the plain
// text, e.g. `My\ Server` -> "My Server", `\065` -> "A".
func unescapeLabel(label string) string {
	if !strings.Contains(label, `\`) {
		return label
	}

	var b strings.Builder

	for n := 0; n < len(label); n++ {
		ch := label[n]
		if ch != '\\' || n+1 >= len(label) {
			b.WriteByte(ch)

			continue
		}

		if n+3 < len(label) && isDigit(label[n+1]) && isDigit(label[n+2]) && isDigit(label[n+3]) {
			value := int(label[n+1]-'0')*100 + int(label[n+2]-'0')*10 + int(label[n+3]-'0')
			if value <= 0xff {
				b.WriteByte(byte(value))
				n += 3

				continue
			}
		}

		b.WriteByte(label[n+1])
		n++
	}

	return b.String()
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
