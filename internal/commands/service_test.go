package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ROLLCALL-backend/internal/attendance"
	"ROLLCALL-backend/internal/confirm"
	"ROLLCALL-backend/internal/intent"
	"ROLLCALL-backend/internal/interpreter"
	"ROLLCALL-backend/internal/platform/apperr"
	"ROLLCALL-backend/internal/roster"
)

// scripted answers each transcript with a canned interpreter reply.
type scripted map[string]string

func (s scripted) interpreter() interpreter.Interpreter {
	return interpreter.Func(func(_ context.Context, transcript string, _ intent.Task) ([]byte, error) {
		reply, ok := s[transcript]
		if !ok {
			return []byte(`{"error":"could not understand the instruction"}`), nil
		}
		return []byte(reply), nil
	})
}

var replies = scripted{
	"mark all present except Ramesh and Priya in Class 7B": `{"intent":"create","className":"7B","students":[{"name":"Ramesh","status":"absent"},{"name":"Priya","status":"absent"}]}`,
	"who was absent in 7B":                                 `{"intent":"query","filter":{"className":"7B"},"resultKind":"absent"}`,
	"who was present in 9 on the 15th":                     `{"intent":"query","filter":{"className":"9","date":"2025-10-15"},"resultKind":"present"}`,
	"delete the attendance for 7B today":                   `{"intent":"delete","filter":{"className":"7B","date":"2025-10-16"}}`,
	"mark Priya present in 7B":                             `{"intent":"update","filter":{"className":"7B"},"updates":{"setStatuses":[{"name":"Priya","status":"present"}]}}`,
	"delete class 9 from yesterday":                        `{"intent":"delete","filter":{"className":"9","date":"2025-10-15"}}`,
	"mark all absent except Priya in 7B":                   `{"intent":"create","className":"7B","defaultStatus":"absent","students":[{"name":"Priya","status":"present"}]}`,
}

type fixture struct {
	svc   *Service
	store *attendance.MemStore
}

func newFixture(t *testing.T, allowForce bool) fixture {
	t.Helper()
	store := attendance.NewMemStore()
	rs := roster.NewStatic(map[string][]string{
		"7B":      {"Ramesh", "Priya", "Arjun", "Meena", "Kavya"},
		"Class 9": {"Anil", "Bina"},
	})
	now := time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)
	exec := attendance.NewService(store, rs, time.UTC, attendance.WithClock(clockAt(now)))
	issuer, err := confirm.NewIssuer("test-secret", 5*time.Minute, confirm.NewMemoryStore())
	require.NoError(t, err)
	issuer.WithClock(func() time.Time { return now })
	return fixture{
		svc:   NewService(replies.interpreter(), exec, issuer, allowForce, nil),
		store: store,
	}
}

type clockAt time.Time

func (c clockAt) Now() time.Time { return time.Time(c) }

func (f fixture) count(t *testing.T) int {
	t.Helper()
	recs, err := f.store.Find(context.Background(), attendance.Predicate{})
	require.NoError(t, err)
	return len(recs)
}

func TestCreateThenQuery(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.svc.Command(ctx, CommandRequest{Transcript: "mark all present except Ramesh and Priya in Class 7B"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "Attendance recorded for class 7B", res.Message)
	rec := res.Data.(attendance.RecordResponse)
	assert.Equal(t, []string{"Ramesh", "Priya"}, rec.AbsentStudents)
	assert.Equal(t, []string{"Arjun", "Meena", "Kavya"}, rec.PresentStudents)

	res, err = f.svc.Query(ctx, QueryRequest{Transcript: "who was absent in 7B"})
	require.NoError(t, err)
	assert.Equal(t, "Query successful", res.Message)
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Query successful","data":{"absentStudents":["Ramesh","Priya"]}}`, string(b))

	res, err = f.svc.Query(ctx, QueryRequest{Transcript: "who was present in 9 on the 15th"})
	require.NoError(t, err)
	assert.Equal(t, msgNoRecords, res.Message)
	assert.Nil(t, res.Data)
}

func TestCreateAllAbsentExcept(t *testing.T) {
	f := newFixture(t, true)
	res, err := f.svc.Command(context.Background(), CommandRequest{Transcript: "mark all absent except Priya in 7B"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.Status)
	rec := res.Data.(attendance.RecordResponse)
	assert.Equal(t, []string{"Priya"}, rec.PresentStudents)
	assert.Equal(t, []string{"Ramesh", "Arjun", "Meena", "Kavya"}, rec.AbsentStudents)
}

func TestQueryTaskRejectsMutations(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.svc.Query(context.Background(), QueryRequest{Transcript: "delete class 9 from yesterday"})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
}

func TestDestructiveNeedsConfirmation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	_, err := f.svc.Command(ctx, CommandRequest{Transcript: "mark all present except Ramesh and Priya in Class 7B"})
	require.NoError(t, err)

	res, err := f.svc.Command(ctx, CommandRequest{Transcript: "delete the attendance for 7B today"})
	require.NoError(t, err)
	assert.True(t, res.ConfirmationRequired)
	assert.Contains(t, res.Message, "delete this record")
	assert.NotEmpty(t, res.ConfirmationToken)
	require.NotNil(t, res.Intent)
	assert.Equal(t, intent.KindDelete, res.Intent.Kind)
	assert.Equal(t, 1, f.count(t))

	done, err := f.svc.Confirm(ctx, ConfirmRequest{Token: res.ConfirmationToken})
	require.NoError(t, err)
	assert.Contains(t, done.Message, "Deleted the attendance record for class 7B on 2025-10-16")
	assert.Equal(t, 0, f.count(t))

	_, err = f.svc.Confirm(ctx, ConfirmRequest{Token: res.ConfirmationToken})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestForceExecutesOnce(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	_, err := f.svc.Command(ctx, CommandRequest{Transcript: "mark all present except Ramesh and Priya in Class 7B"})
	require.NoError(t, err)

	res, err := f.svc.Command(ctx, CommandRequest{Transcript: "mark Priya present in 7B"})
	require.NoError(t, err)
	assert.True(t, res.ConfirmationRequired)
	assert.Contains(t, res.Message, "update record(s)")

	recs, _ := f.store.Find(ctx, attendance.Predicate{})
	assert.Equal(t, intent.StatusAbsent, recs[0].Students[1].Status)

	res, err = f.svc.Command(ctx, CommandRequest{Transcript: "mark Priya present in 7B", Force: true})
	require.NoError(t, err)
	assert.False(t, res.ConfirmationRequired)
	upd := res.Data.(attendance.UpdateResult)
	assert.Equal(t, 1, upd.MatchedRecords)
	assert.Equal(t, 1, upd.ModifiedEntries)

	recs, _ = f.store.Find(ctx, attendance.Predicate{})
	require.Len(t, recs, 1)
	assert.Equal(t, intent.StatusPresent, recs[0].Students[1].Status)
}

func TestForceDisabled(t *testing.T) {
	f := newFixture(t, false)
	res, err := f.svc.Command(context.Background(), CommandRequest{Transcript: "delete class 9 from yesterday", Force: true})
	require.NoError(t, err)
	assert.True(t, res.ConfirmationRequired)
}

func TestDeleteWithoutMatchIsNotFound(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.svc.Command(context.Background(), CommandRequest{Transcript: "delete class 9 from yesterday", Force: true})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestInterpreterErrorIsParseError(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.svc.Command(context.Background(), CommandRequest{Transcript: "sing a song"})
	require.Error(t, err)
	var api *apperr.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, apperr.CodeParse, api.Code)
	assert.Equal(t, "could not understand the instruction", api.Detail)
}

func TestHTTPRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t, true)
	r := gin.New()
	RegisterRoutes(r.Group("/api/attendance"), f.svc)

	post := func(path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/api/attendance/voice", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":{"code":"INVALID_ARGUMENT","message":"Transcript is required"}}`, w.Body.String())

	w = post("/api/attendance/voice", map[string]any{"transcript": "mark all present except Ramesh and Priya in Class 7B"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = post("/api/attendance/voice", map[string]any{"transcript": "sing a song"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"PARSE_ERROR"`)

	w = post("/api/attendance/voice", map[string]any{"transcript": "delete the attendance for 7B today"})
	require.Equal(t, http.StatusOK, w.Code)
	var pending struct {
		ConfirmationRequired bool   `json:"confirmationRequired"`
		ConfirmationToken    string `json:"confirmationToken"`
		Message              string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	assert.True(t, pending.ConfirmationRequired)

	w = post("/api/attendance/confirm", map[string]any{"token": pending.ConfirmationToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w = post("/api/attendance/confirm", map[string]any{"token": pending.ConfirmationToken})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post("/api/attendance/confirm", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/api/attendance/query", map[string]any{"transcript": "who was absent in 7B"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"No records found for this query."}`, w.Body.String())
}
