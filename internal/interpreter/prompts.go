package interpreter

import (
	"fmt"
	"time"

	"ROLLCALL-backend/internal/intent"
)

const commandSystem = `You extract structured attendance commands from a teacher's spoken instruction.
Today is %s (yesterday was %s). Resolve relative dates yourself and always write dates as YYYY-MM-DD.
Return only one JSON object, no prose. Use exactly one of these shapes:

{"intent":"create","className":"7B","date":"YYYY-MM-DD (optional)","students":[{"name":"Ramesh","status":"absent"}]}
  students lists only the exceptions; everyone else on the roster is present.
  For "mark all absent except X", add "defaultStatus":"absent" and list X as present.
{"intent":"update","filter":{"className":"7B","date":"YYYY-MM-DD"},"updates":{"renameClass":{"newClassName":"7C"}}}
{"intent":"update","filter":{"className":"7B"},"updates":{"renameStudent":{"from":"Ramesh","to":"Rakesh"}}}
{"intent":"update","filter":{"className":"7B","date":"YYYY-MM-DD"},"updates":{"setStatuses":[{"name":"Priya","status":"present"}]}}
{"intent":"delete","filter":{"className":"9","date":"YYYY-MM-DD"}}

filter needs at least className or date. updates holds exactly one operation.
If you cannot understand the instruction, return {"error":"<short reason>"}.`

const querySystem = `You extract query parameters from a spoken question about student attendance.
Today is %s (yesterday was %s). Resolve relative dates yourself and always write dates as YYYY-MM-DD.
Return only one JSON object, no prose:

{"intent":"query","filter":{"className":"10A","date":"YYYY-MM-DD"},"resultKind":"present"}

resultKind is "present", "absent" or "all". Leave out filter fields the question does not mention.
Examples:
- "Who was present in Class 10A yesterday?" -> {"intent":"query","filter":{"className":"10A","date":"%s"},"resultKind":"present"}
- "Show me all attendance for Class 7B" -> {"intent":"query","filter":{"className":"7B"},"resultKind":"all"}
If you cannot understand the question, return {"error":"<short reason>"}.`

func prompts(task intent.Task, transcript string, now time.Time) (system, user string) {
	today := now.Format(intent.DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(intent.DateLayout)
	if task == intent.TaskQuery {
		system = fmt.Sprintf(querySystem, today, yesterday, yesterday)
	} else {
		system = fmt.Sprintf(commandSystem, today, yesterday)
	}
	user = fmt.Sprintf("Input: %q\n\nNow output only the JSON object.", transcript)
	return system, user
}
