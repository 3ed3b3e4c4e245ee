package advice

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	openingFence = regexp.MustCompile("^\\s*`{3,}\\w*\\s*")
	closingFence = regexp.MustCompile("\\s*`{3,}\\s*$")
)

// CleanMarkdown 去掉包裹整段文本的代码围栏，并在紧贴 CJK 括号类标点的加粗标记旁补空格，
// 避免渲染器把 ** 与相邻文字粘连而无法识别加粗。
func CleanMarkdown(input string) string {
	if strings.TrimSpace(input) == "" {
		return input
	}

	s := strings.TrimSpace(input)
	if loc := openingFence.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
		s = closingFence.ReplaceAllString(s, "")
	}

	s = spaceBeforeBold(s)
	s = spaceAfterBold(s)
	return strings.TrimSpace(s)
}

// spaceBeforeBold: "字**【" -> "字 **【"
func spaceBeforeBold(s string) string {
	r := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(r); i++ {
		if isBold(r, i) {
			if i > 0 && !unicode.IsSpace(r[i-1]) && !unicode.IsPunct(r[i-1]) &&
				i+2 < len(r) && isOpening(r[i+2]) {
				b.WriteRune(' ')
			}
			b.WriteString("**")
			i++
			continue
		}
		b.WriteRune(r[i])
	}
	return b.String()
}

// spaceAfterBold: "】**字" -> "】** 字"
func spaceAfterBold(s string) string {
	r := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(r); i++ {
		if isBold(r, i) {
			b.WriteString("**")
			if i > 0 && isClosing(r[i-1]) &&
				i+2 < len(r) && !unicode.IsSpace(r[i+2]) && !unicode.IsPunct(r[i+2]) {
				b.WriteRune(' ')
			}
			i++
			continue
		}
		b.WriteRune(r[i])
	}
	return b.String()
}

func isBold(r []rune, i int) bool {
	return r[i] == '*' && i+1 < len(r) && r[i+1] == '*'
}

func isOpening(c rune) bool {
	return unicode.In(c, unicode.Ps, unicode.Pi)
}

func isClosing(c rune) bool {
	return unicode.In(c, unicode.Pe, unicode.Pf)
}
