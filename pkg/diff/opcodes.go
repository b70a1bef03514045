package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Tag は Opcode の種別です。
type Tag byte

const (
	Equal   Tag = 'e'
	Delete  Tag = 'd'
	Insert  Tag = 'i'
	Replace Tag = 'r'
)

func (t Tag) String() string {
	switch t {
	case Equal:
		return "equal"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

// Opcode は a[I1:I2] と b[J1:J2] の関係を表す区間です。
// Opcode の列は両系列の全範囲を隙間・重複なく覆います。
type Opcode struct {
	Tag    Tag
	I1, I2 int
	J1, J2 int
}

// Alignment は2つの単語列のアラインメント結果です。
type Alignment struct {
	Opcodes []Opcode
	Matches int     // equal 区間に含まれる要素数の合計
	Ratio   float64 // 2*Matches / (len(a)+len(b))。両方空の場合は 1.0
}

// Tokenize は空白の連続で区切って単語列を返します。大文字小文字や記号は変換しません。
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// Align は Ratcliff/Obershelp 方式で最長一致ブロックを再帰的に求め、Opcode 列を返します。
// 200要素以上の系列では、出現頻度の高い要素を自動的にジャンクとして扱います。
func Align(a, b []string) Alignment {
	m := difflib.NewMatcher(a, b)

	codes := m.GetOpCodes()
	ops := make([]Opcode, 0, len(codes))
	matches := 0
	for _, c := range codes {
		op := Opcode{Tag: Tag(c.Tag), I1: c.I1, I2: c.I2, J1: c.J1, J2: c.J2}
		if op.Tag == Equal {
			matches += op.I2 - op.I1
		}
		ops = append(ops, op)
	}

	return Alignment{
		Opcodes: ops,
		Matches: matches,
		Ratio:   ratio(matches, len(a)+len(b)),
	}
}

func ratio(matches, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matches) / float64(total)
}

// Partition は Opcode 列を順に走査し、単語を旧のみ・新のみ・共通に振り分けます。
// replace は旧側の削除と新側の追加として扱い、部分一致とはみなしません。
func Partition(a, b []string, ops []Opcode) (onlyOld, onlyNew, common []string) {
	for _, op := range ops {
		switch op.Tag {
		case Equal:
			common = append(common, a[op.I1:op.I2]...)
		case Delete:
			onlyOld = append(onlyOld, a[op.I1:op.I2]...)
		case Insert:
			onlyNew = append(onlyNew, b[op.J1:op.J2]...)
		case Replace:
			onlyOld = append(onlyOld, a[op.I1:op.I2]...)
			onlyNew = append(onlyNew, b[op.J1:op.J2]...)
		}
	}
	return onlyOld, onlyNew, common
}
