package attendance

import (
	"encoding/json"
	"time"

	"ROLLCALL-backend/internal/intent"
)

type RecordResponse struct {
	ID              string          `json:"id"`
	ClassName       string          `json:"className"`
	Date            time.Time       `json:"date"`
	Students        []StudentStatus `json:"students"`
	PresentStudents []string        `json:"presentStudents"`
	AbsentStudents  []string        `json:"absentStudents"`
}

// UpdateResult は一括更新の結果。件数を潰さずに対象レコードも返す。
type UpdateResult struct {
	MatchedRecords  int              `json:"matchedRecords"`
	ModifiedEntries int              `json:"modifiedEntries"`
	Records         []RecordResponse `json:"records"`
}

// QueryResult は resultKind に応じていずれか1つだけ埋まる。
// 空でもキーは出す（present 指定で0人なら "presentStudents": []）。
type QueryResult struct {
	Kind            intent.ResultKind `json:"-"`
	Matched         int               `json:"-"`
	PresentStudents []string          `json:"presentStudents,omitempty"`
	AbsentStudents  []string          `json:"absentStudents,omitempty"`
	Records         []RecordResponse  `json:"records,omitempty"`
}

func (q QueryResult) MarshalJSON() ([]byte, error) {
	switch q.Kind {
	case intent.ResultPresent:
		return json.Marshal(map[string][]string{"presentStudents": nonNil(q.PresentStudents)})
	case intent.ResultAbsent:
		return json.Marshal(map[string][]string{"absentStudents": nonNil(q.AbsentStudents)})
	}
	recs := q.Records
	if recs == nil {
		recs = []RecordResponse{}
	}
	return json.Marshal(map[string][]RecordResponse{"records": recs})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type ReportResponse struct {
	Summary map[string]int `json:"summary"`
}
