package intent

import (
	"encoding/json"
	"strings"
	"time"

	"ROLLCALL-backend/internal/platform/apperr"
	"ROLLCALL-backend/internal/platform/textmatch"
)

const DateLayout = "2006-01-02"

// NormalizeJSON decodes interpreter output and normalizes it.
func NormalizeJSON(buf []byte, task Task) (Intent, error) {
	var raw any
	if err := json.Unmarshal(buf, &raw); err != nil {
		return Intent{}, apperr.ErrParse("interpreter returned invalid JSON")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Intent{}, apperr.ErrParse("interpreter returned no intent object")
	}
	return Normalize(obj, task)
}

// Normalize validates the untyped interpreter object and returns the typed
// intent. Failures are *apperr.APIError with CodeParse (unusable output) or
// CodeInvalidArgument (well-formed but incomplete intent).
func Normalize(raw map[string]any, task Task) (Intent, error) {
	if raw == nil {
		return Intent{}, apperr.ErrParse("interpreter returned no intent object")
	}
	if msg, ok := raw["error"].(string); ok && strings.TrimSpace(msg) != "" {
		return Intent{}, apperr.ErrParse("failed to parse command").WithDetail(msg)
	}
	if err := intentSchema.Validate(raw); err != nil {
		return Intent{}, apperr.ErrParse("malformed intent").WithDetail(err.Error())
	}

	kind, err := kindOf(raw, task)
	if err != nil {
		return Intent{}, err
	}
	if task == TaskQuery && kind != KindQuery {
		return Intent{}, apperr.ErrInvalid("a query cannot change attendance records")
	}

	var in Intent
	switch kind {
	case KindCreate:
		c, err := normalizeCreate(raw)
		if err != nil {
			return Intent{}, err
		}
		in = Intent{Kind: KindCreate, Create: &c}
	case KindUpdate:
		u, err := normalizeUpdate(raw)
		if err != nil {
			return Intent{}, err
		}
		in = Intent{Kind: KindUpdate, Update: &u}
	case KindDelete:
		f, err := requiredFilter(raw)
		if err != nil {
			return Intent{}, err
		}
		in = Intent{Kind: KindDelete, Delete: &Delete{Filter: f}}
	case KindQuery:
		q, err := normalizeQuery(raw)
		if err != nil {
			return Intent{}, err
		}
		in = Intent{Kind: KindQuery, Query: &q}
	default:
		return Intent{}, apperr.ErrParse("unknown intent")
	}
	return in, nil
}

func kindOf(raw map[string]any, task Task) (Kind, error) {
	s := strings.ToLower(str(raw["intent"]))
	switch Kind(s) {
	case KindCreate, KindUpdate, KindDelete, KindQuery:
		return Kind(s), nil
	case "":
		// 旧形式: {className, action, exceptions} / {className, date, query}
		if task == TaskQuery {
			return KindQuery, nil
		}
		if _, ok := raw["action"]; ok {
			return KindCreate, nil
		}
		if _, ok := raw["exceptions"]; ok {
			return KindCreate, nil
		}
	}
	return "", apperr.ErrParse("unknown intent")
}

func normalizeCreate(raw map[string]any) (Create, error) {
	c := Create{
		ClassName:     str(raw["className"]),
		DefaultStatus: StatusPresent,
	}
	if c.ClassName == "" {
		return Create{}, apperr.ErrInvalid("className is required")
	}
	if d := str(raw["date"]); d != "" {
		if !ValidDate(d) {
			return Create{}, apperr.ErrInvalid("date must be YYYY-MM-DD")
		}
		c.Date = d
	}
	// 明示された defaultStatus は action の推定より優先
	explicit := str(raw["defaultStatus"]) != ""
	if explicit {
		c.DefaultStatus = ParseStatus(str(raw["defaultStatus"]))
	}

	students, hasStudents := raw["students"].([]any)
	exceptions, hasExceptions := raw["exceptions"].([]any)
	switch {
	case hasStudents:
		list, err := studentList(students)
		if err != nil {
			return Create{}, err
		}
		c.Students = list
	case hasExceptions:
		// "mark all present/absent except ..." : 例外は既定の逆
		if !explicit && strings.Contains(strings.ToLower(str(raw["action"])), "absent") {
			c.DefaultStatus = StatusAbsent
		}
		other := StatusAbsent
		if c.DefaultStatus == StatusAbsent {
			other = StatusPresent
		}
		for _, e := range exceptions {
			name := str(e)
			if name == "" {
				continue
			}
			c.Students = append(c.Students, StudentStatus{Name: name, Status: other})
		}
		c.Students = dedupe(c.Students)
	case raw["action"] != nil:
		if !explicit && strings.Contains(strings.ToLower(str(raw["action"])), "absent") {
			c.DefaultStatus = StatusAbsent
		}
	default:
		return Create{}, apperr.ErrInvalid("students are required")
	}
	if c.Students == nil {
		c.Students = []StudentStatus{}
	}
	return c, nil
}

func normalizeUpdate(raw map[string]any) (Update, error) {
	f, err := requiredFilter(raw)
	if err != nil {
		return Update{}, err
	}
	ups, _ := raw["updates"].(map[string]any)

	var u Updates
	populated := 0
	if rc, ok := ups["renameClass"].(map[string]any); ok && len(rc) > 0 {
		populated++
		name := str(rc["newClassName"])
		if name == "" {
			return Update{}, apperr.ErrInvalid("renameClass needs newClassName")
		}
		u.RenameClass = &RenameClass{NewClassName: name}
	}
	if rs, ok := ups["renameStudent"].(map[string]any); ok && len(rs) > 0 {
		populated++
		from, to := str(rs["from"]), str(rs["to"])
		if from == "" || to == "" {
			return Update{}, apperr.ErrInvalid("renameStudent needs from and to")
		}
		u.RenameStudent = &RenameStudent{From: from, To: to}
	}
	if ss, ok := ups["setStatuses"].([]any); ok && len(ss) > 0 {
		populated++
		list, err := studentList(ss)
		if err != nil {
			return Update{}, err
		}
		u.SetStatuses = list
	}
	if populated != 1 {
		return Update{}, apperr.ErrInvalid("unsupported update operation")
	}
	return Update{Filter: f, Updates: u}, nil
}

func normalizeQuery(raw map[string]any) (Query, error) {
	f, err := filterOf(raw)
	if err != nil {
		return Query{}, err
	}
	rk := str(raw["resultKind"])
	if rk == "" {
		rk = str(raw["query"])
	}
	kind := ResultAll
	switch ResultKind(strings.ToLower(rk)) {
	case ResultPresent:
		kind = ResultPresent
	case ResultAbsent:
		kind = ResultAbsent
	}
	return Query{Filter: f, ResultKind: kind}, nil
}

func requiredFilter(raw map[string]any) (FilterSpec, error) {
	f, err := filterOf(raw)
	if err != nil {
		return FilterSpec{}, err
	}
	if f.Empty() {
		return FilterSpec{}, apperr.ErrInvalid("filter required")
	}
	return f, nil
}

// filterOf reads "filter", falling back to top-level className/date.
func filterOf(raw map[string]any) (FilterSpec, error) {
	src, ok := raw["filter"].(map[string]any)
	if !ok {
		src = raw
	}
	f := FilterSpec{ClassName: str(src["className"]), Date: str(src["date"])}
	if f.Date != "" && !ValidDate(f.Date) {
		return FilterSpec{}, apperr.ErrInvalid("date must be YYYY-MM-DD")
	}
	return f, nil
}

func studentList(items []any) ([]StudentStatus, error) {
	out := make([]StudentStatus, 0, len(items))
	for _, it := range items {
		m, _ := it.(map[string]any)
		name := str(m["name"])
		if name == "" {
			return nil, apperr.ErrInvalid("each student needs a name")
		}
		out = append(out, StudentStatus{Name: name, Status: ParseStatus(str(m["status"]))})
	}
	return dedupe(out), nil
}

// dedupe keeps the first position of a name and the last status given for it.
func dedupe(in []StudentStatus) []StudentStatus {
	idx := make(map[string]int, len(in))
	out := make([]StudentStatus, 0, len(in))
	for _, s := range in {
		key := textmatch.Fold(s.Name)
		if i, ok := idx[key]; ok {
			out[i].Status = s.Status
			continue
		}
		idx[key] = len(out)
		out = append(out, s)
	}
	return out
}

// ParseStatus maps free-form status words onto present/absent. Anything
// not recognizably absent counts as present.
func ParseStatus(s string) Status {
	switch textmatch.Fold(s) {
	case "absent", "a", "away", "missing", "not present", "no":
		return StatusAbsent
	}
	return StatusPresent
}

func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
