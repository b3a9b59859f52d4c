// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/attendance": {
            "get": {
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "List attendance records, most recent date first",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/attendance.RecordResponse"}}}
                }
            }
        },
        "/attendance/report": {
            "get": {
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Total absences per stored class name",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/attendance.ReportResponse"}}
                }
            }
        },
        "/attendance/voice": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Interpret and run a spoken attendance command",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/commands.CommandRequest"}}
                ],
                "responses": {
                    "200": {"description": "executed, or confirmation required", "schema": {"$ref": "#/definitions/commands.Response"}},
                    "201": {"description": "record created", "schema": {"$ref": "#/definitions/commands.Response"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"},
                    "422": {"description": "Unprocessable Entity"},
                    "502": {"description": "Bad Gateway"}
                }
            }
        },
        "/attendance/query": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Answer a spoken attendance question",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/commands.QueryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/commands.Response"}},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/attendance/confirm": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Execute a destructive command proposed earlier",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/commands.ConfirmRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/commands.Response"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/rosters": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rosters"],
                "summary": "List class rosters",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/roster.Roster"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rosters"],
                "summary": "Create a class roster",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/roster.CreateRosterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/roster.Roster"}},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/rosters/{class}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rosters"],
                "summary": "Get one class roster",
                "parameters": [{"type": "string", "name": "class", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/roster.Roster"}},
                    "404": {"description": "Not Found"}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rosters"],
                "summary": "Replace the students of a class roster",
                "parameters": [
                    {"type": "string", "name": "class", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/roster.UpdateRosterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/roster.Roster"}},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["rosters"],
                "summary": "Delete a class roster",
                "parameters": [{"type": "string", "name": "class", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "attendance.StudentStatus": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "status": {"type": "string", "enum": ["present", "absent"]}
            }
        },
        "attendance.RecordResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "className": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "students": {"type": "array", "items": {"$ref": "#/definitions/attendance.StudentStatus"}},
                "presentStudents": {"type": "array", "items": {"type": "string"}},
                "absentStudents": {"type": "array", "items": {"type": "string"}}
            }
        },
        "attendance.ReportResponse": {
            "type": "object",
            "properties": {
                "summary": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "commands.CommandRequest": {
            "type": "object",
            "properties": {
                "transcript": {"type": "string"},
                "force": {"type": "boolean"}
            }
        },
        "commands.QueryRequest": {
            "type": "object",
            "properties": {
                "transcript": {"type": "string"}
            }
        },
        "commands.ConfirmRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {
                "token": {"type": "string"}
            }
        },
        "commands.Response": {
            "type": "object",
            "properties": {
                "confirmationRequired": {"type": "boolean"},
                "confirmationToken": {"type": "string"},
                "expiresAt": {"type": "string", "format": "date-time"},
                "intent": {"type": "object"},
                "message": {"type": "string"},
                "data": {"type": "object"}
            }
        },
        "roster.Roster": {
            "type": "object",
            "properties": {
                "className": {"type": "string"},
                "students": {"type": "array", "items": {"type": "string"}}
            }
        },
        "roster.CreateRosterRequest": {
            "type": "object",
            "properties": {
                "className": {"type": "string"},
                "students": {"type": "array", "items": {"type": "string"}}
            }
        },
        "roster.UpdateRosterRequest": {
            "type": "object",
            "properties": {
                "students": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "ROLLCALL API",
	Description:      "Voice driven class attendance.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
