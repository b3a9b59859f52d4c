package attendance

import (
	"encoding/json"
	"time"

	"ROLLCALL-backend/internal/intent"
)

type StudentStatus = intent.StudentStatus

// Record は1クラス1日分の出欠。
// 出席者/欠席者リストは保存せず、常に Students から導出する。
type Record struct {
	ID        string
	ClassName string
	Date      time.Time
	Students  []StudentStatus
	CreatedAt time.Time
}

func (r Record) PresentStudents() []string { return r.namesWith(intent.StatusPresent) }
func (r Record) AbsentStudents() []string  { return r.namesWith(intent.StatusAbsent) }

func (r Record) namesWith(st intent.Status) []string {
	out := make([]string, 0, len(r.Students))
	for _, s := range r.Students {
		if s.Status == st {
			out = append(out, s.Name)
		}
	}
	return out
}

func (r Record) clone() Record {
	cp := r
	cp.Students = append([]StudentStatus(nil), r.Students...)
	return cp
}

func (r Record) toDTO() RecordResponse {
	return RecordResponse{
		ID:              r.ID,
		ClassName:       r.ClassName,
		Date:            r.Date,
		Students:        append([]StudentStatus{}, r.Students...),
		PresentStudents: r.PresentStudents(),
		AbsentStudents:  r.AbsentStudents(),
	}
}

// MarshalJSON は導出リスト込みで出す（CLI 出力用）。
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toDTO())
}
