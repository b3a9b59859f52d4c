package intent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ROLLCALL-backend/internal/platform/apperr"
)

func normalize(t *testing.T, js string, task Task) (Intent, error) {
	t.Helper()
	return NormalizeJSON([]byte(js), task)
}

func TestNormalizeCreate(t *testing.T) {
	in, err := normalize(t, `{
		"intent": "CREATE",
		"className": " 7B ",
		"students": [
			{"name": "Ramesh", "status": "absent"},
			{"name": "Priya", "status": "Absent"},
			{"name": "Arjun"},
			{"name": "Meena", "status": "maybe"},
			{"name": "ramesh", "status": "absent"}
		]
	}`, TaskCommand)
	require.NoError(t, err)
	require.NoError(t, in.Check())

	want := &Create{
		ClassName:     "7B",
		DefaultStatus: StatusPresent,
		Students: []StudentStatus{
			{Name: "Ramesh", Status: StatusAbsent},
			{Name: "Priya", Status: StatusAbsent},
			{Name: "Arjun", Status: StatusPresent},
			{Name: "Meena", Status: StatusPresent},
		},
	}
	if diff := cmp.Diff(want, in.Create); diff != "" {
		t.Errorf("create mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCreateDefaultStatus(t *testing.T) {
	in, err := normalize(t, `{"intent":"create","className":"7B","defaultStatus":"absent","students":[{"name":"Priya","status":"present"}]}`, TaskCommand)
	require.NoError(t, err)
	want := &Create{
		ClassName:     "7B",
		DefaultStatus: StatusAbsent,
		Students:      []StudentStatus{{Name: "Priya", Status: StatusPresent}},
	}
	if diff := cmp.Diff(want, in.Create); diff != "" {
		t.Errorf("create mismatch (-want +got):\n%s", diff)
	}

	// 明示値は action からの推定より優先
	in, err = normalize(t, `{"className":"7B","action":"mark all absent","defaultStatus":"present","exceptions":["Arjun"]}`, TaskCommand)
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, in.Create.DefaultStatus)

	_, err = normalize(t, `{"intent":"create","className":"7B","defaultStatus":false,"students":[]}`, TaskCommand)
	assert.True(t, apperr.Is(err, apperr.CodeParse))
}

func TestNormalizeLegacyCommandShape(t *testing.T) {
	in, err := normalize(t, `{"className":"7B","action":"mark all absent","exceptions":["Arjun"]}`, TaskCommand)
	require.NoError(t, err)
	require.Equal(t, KindCreate, in.Kind)
	assert.Equal(t, StatusAbsent, in.Create.DefaultStatus)
	assert.Equal(t, []StudentStatus{{Name: "Arjun", Status: StatusPresent}}, in.Create.Students)

	in, err = normalize(t, `{"className":"10A","action":"mark all present","exceptions":[]}`, TaskCommand)
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, in.Create.DefaultStatus)
	assert.Empty(t, in.Create.Students)
}

func TestNormalizeInterpreterError(t *testing.T) {
	_, err := normalize(t, `{"error":"could not understand the class"}`, TaskCommand)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeParse))

	var api *apperr.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, "could not understand the class", api.Detail)
}

func TestNormalizeRejects(t *testing.T) {
	cases := []struct {
		name string
		js   string
		task Task
		code apperr.Code
		msg  string
	}{
		{"unknown kind", `{"intent":"archive","filter":{"className":"7B"}}`, TaskCommand, apperr.CodeParse, "unknown intent"},
		{"missing kind", `{"filter":{"className":"7B"}}`, TaskCommand, apperr.CodeParse, "unknown intent"},
		{"not json", `mark all present`, TaskCommand, apperr.CodeParse, "interpreter returned invalid JSON"},
		{"array", `[1,2]`, TaskCommand, apperr.CodeParse, "interpreter returned no intent object"},
		{"wrong types", `{"intent":"create","className":7}`, TaskCommand, apperr.CodeParse, "malformed intent"},
		{"create without class", `{"intent":"create","students":[]}`, TaskCommand, apperr.CodeInvalidArgument, "className is required"},
		{"create without students", `{"intent":"create","className":"7B"}`, TaskCommand, apperr.CodeInvalidArgument, "students are required"},
		{"student without name", `{"intent":"create","className":"7B","students":[{"status":"absent"}]}`, TaskCommand, apperr.CodeInvalidArgument, "each student needs a name"},
		{"delete empty filter", `{"intent":"delete","filter":{}}`, TaskCommand, apperr.CodeInvalidArgument, "filter required"},
		{"delete no filter", `{"intent":"delete"}`, TaskCommand, apperr.CodeInvalidArgument, "filter required"},
		{"update empty filter", `{"intent":"update","filter":{"className":""},"updates":{"renameClass":{"newClassName":"7C"}}}`, TaskCommand, apperr.CodeInvalidArgument, "filter required"},
		{"update no op", `{"intent":"update","filter":{"className":"7B"},"updates":{}}`, TaskCommand, apperr.CodeInvalidArgument, "unsupported update operation"},
		{"update two ops", `{"intent":"update","filter":{"className":"7B"},"updates":{"renameClass":{"newClassName":"7C"},"renameStudent":{"from":"A","to":"B"}}}`, TaskCommand, apperr.CodeInvalidArgument, "unsupported update operation"},
		{"bad date", `{"intent":"delete","filter":{"className":"9","date":"2025-10-15T10:00:00Z"}}`, TaskCommand, apperr.CodeInvalidArgument, "date must be YYYY-MM-DD"},
		{"mutation on query task", `{"intent":"delete","filter":{"className":"9"}}`, TaskQuery, apperr.CodeInvalidArgument, "a query cannot change attendance records"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := normalize(t, tc.js, tc.task)
			require.Error(t, err)
			var api *apperr.APIError
			require.ErrorAs(t, err, &api)
			assert.Equal(t, tc.code, api.Code)
			assert.Equal(t, tc.msg, api.Message)
		})
	}
}

func TestNormalizeUpdateVariants(t *testing.T) {
	in, err := normalize(t, `{"intent":"update","filter":{"className":"7B","date":"2025-10-16"},"updates":{"renameClass":{"newClassName":"7C"}}}`, TaskCommand)
	require.NoError(t, err)
	assert.Equal(t, FilterSpec{ClassName: "7B", Date: "2025-10-16"}, in.Update.Filter)
	assert.Equal(t, &RenameClass{NewClassName: "7C"}, in.Update.Updates.RenameClass)

	in, err = normalize(t, `{"intent":"update","filter":{"className":"7B"},"updates":{"renameStudent":{"from":"Ramesh","to":"Rakesh"}}}`, TaskCommand)
	require.NoError(t, err)
	assert.Equal(t, &RenameStudent{From: "Ramesh", To: "Rakesh"}, in.Update.Updates.RenameStudent)

	in, err = normalize(t, `{"intent":"update","filter":{"date":"2025-10-16"},"updates":{"setStatuses":[{"name":"Priya","status":"present"},{"name":"Arjun","status":"absent"}]}}`, TaskCommand)
	require.NoError(t, err)
	assert.Equal(t, []StudentStatus{{Name: "Priya", Status: StatusPresent}, {Name: "Arjun", Status: StatusAbsent}}, in.Update.Updates.SetStatuses)
}

func TestNormalizeQuery(t *testing.T) {
	in, err := normalize(t, `{"intent":"query","filter":{"className":"10A","date":"2025-10-15"},"resultKind":"present"}`, TaskQuery)
	require.NoError(t, err)
	assert.Equal(t, ResultPresent, in.Query.ResultKind)

	// 旧形式（intent 無し・query キー）
	in, err = normalize(t, `{"className":"9","date":"2025-10-15","query":"absent"}`, TaskQuery)
	require.NoError(t, err)
	assert.Equal(t, KindQuery, in.Kind)
	assert.Equal(t, FilterSpec{ClassName: "9", Date: "2025-10-15"}, in.Query.Filter)
	assert.Equal(t, ResultAbsent, in.Query.ResultKind)

	in, err = normalize(t, `{"intent":"query","resultKind":"everyone"}`, TaskQuery)
	require.NoError(t, err)
	assert.True(t, in.Query.Filter.Empty())
	assert.Equal(t, ResultAll, in.Query.ResultKind)
}

func TestDeleteFallsBackToTopLevelFilter(t *testing.T) {
	in, err := normalize(t, `{"intent":"delete","className":"9","date":"2025-10-15"}`, TaskCommand)
	require.NoError(t, err)
	assert.Equal(t, FilterSpec{ClassName: "9", Date: "2025-10-15"}, in.Delete.Filter)
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusAbsent, ParseStatus("ABSENT"))
	assert.Equal(t, StatusAbsent, ParseStatus(" a "))
	assert.Equal(t, StatusPresent, ParseStatus("present"))
	assert.Equal(t, StatusPresent, ParseStatus(""))
	assert.Equal(t, StatusPresent, ParseStatus("late"))
}

func TestIntentCheck(t *testing.T) {
	assert.Error(t, Intent{Kind: KindDelete}.Check())
	assert.Error(t, Intent{Kind: KindDelete, Query: &Query{}}.Check())
	assert.Error(t, Intent{Kind: KindDelete, Delete: &Delete{}, Query: &Query{}}.Check())
	assert.NoError(t, Intent{Kind: KindDelete, Delete: &Delete{}}.Check())
}
