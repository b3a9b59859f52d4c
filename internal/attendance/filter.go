package attendance

import (
	"strings"
	"time"

	"ROLLCALL-backend/internal/intent"
	"ROLLCALL-backend/internal/platform/apperr"
	"ROLLCALL-backend/internal/platform/textmatch"
)

// Predicate は FilterSpec をストアで評価できる形にしたもの。
// 未指定の項目は条件に含めない（ワイルドカードにはしない）。
type Predicate struct {
	// ClassSuffix: 大文字小文字を無視した、トークン境界での後方一致
	ClassSuffix string
	// [From, To) の半開区間
	From, To *time.Time
}

func (p Predicate) Empty() bool { return p.ClassSuffix == "" && p.From == nil }

func (p Predicate) Match(r Record) bool {
	if p.ClassSuffix != "" && !textmatch.ClassMatches(r.ClassName, p.ClassSuffix) {
		return false
	}
	if p.From != nil && r.Date.Before(*p.From) {
		return false
	}
	if p.To != nil && !r.Date.Before(*p.To) {
		return false
	}
	return true
}

// BuildPredicate: date は loc の暦日 [00:00, 翌00:00) に展開する。
func BuildPredicate(f intent.FilterSpec, loc *time.Location) (Predicate, error) {
	if loc == nil {
		loc = time.UTC
	}
	p := Predicate{ClassSuffix: strings.TrimSpace(f.ClassName)}
	if d := strings.TrimSpace(f.Date); d != "" {
		day, err := time.ParseInLocation(intent.DateLayout, d, loc)
		if err != nil {
			return Predicate{}, apperr.ErrInvalid("date must be YYYY-MM-DD")
		}
		from := day
		to := day.AddDate(0, 0, 1)
		p.From, p.To = &from, &to
	}
	return p, nil
}

// sqlWhere は SQL 側の粗い絞り込み。クラス名は LIKE で候補を拾い、
// トークン境界の判定は Match で行う。LIKE のワイルドカードを含む値は SQL では絞らない。
func (p Predicate) sqlWhere() (string, []any) {
	var (
		wheres []string
		args   []any
	)
	if tail := likeTail(p.ClassSuffix); tail != "" {
		wheres = append(wheres, "LOWER(r.class_name) LIKE ?")
		args = append(args, "%"+tail)
	}
	if p.From != nil {
		wheres = append(wheres, "r.recorded_at >= ?")
		args = append(args, p.From.UTC())
	}
	if p.To != nil {
		wheres = append(wheres, "r.recorded_at < ?")
		args = append(args, p.To.UTC())
	}
	if len(wheres) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wheres, " AND "), args
}

// likeTail は LIKE に安全に渡せる末尾トークン（ASCII のみ・小文字）。
// 使えない場合は "" を返し、クラス名の絞り込みは Match に任せる。
func likeTail(suffix string) string {
	fields := strings.Fields(suffix)
	if len(fields) == 0 {
		return ""
	}
	tail := strings.ToLower(fields[len(fields)-1])
	for i := 0; i < len(tail); i++ {
		c := tail[i]
		if c >= 0x80 || c == '%' || c == '_' || c == '\\' {
			return ""
		}
	}
	return tail
}
