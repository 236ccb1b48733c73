package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "DeptDesk API",
        "description": "Department administration API: timetable, calendar, attendance, allotments and exports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login, token refresh and logout"},
        {"name": "Timetable", "description": "Timetable entry management"},
        {"name": "Calendar", "description": "Materialized calendar events"},
        {"name": "Attendance", "description": "Session attendance records"},
        {"name": "Allotments", "description": "Subject-faculty-batch assignments"},
        {"name": "Settings", "description": "Department reference data"},
        {"name": "Export", "description": "Timetable exports and download jobs"},
        {"name": "Health", "description": "Liveness and readiness probes"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/calendar/events": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Week view events",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "batchId", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "description": "YYYY-MM-DD, defaults to today"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/expanded": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Full materialization window events",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "batchId", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/entries": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List timetable entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "batchId", "in": "query", "type": "string"},
                    {"name": "facultyId", "in": "query", "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "dayOfWeek", "in": "query", "type": "string"},
                    {"name": "entryType", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Timetable"],
                "summary": "Create timetable entry",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict"}
                }
            }
        },
        "/timetable/entries/{id}/move": {
            "patch": {
                "tags": ["Timetable"],
                "summary": "Move an entry to a new slot or day",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict or past-locked entry"}
                }
            }
        },
        "/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance for a session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Past-locked session"}
                }
            },
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/timetable": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a timetable export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "batchId", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "required": true}
                ],
                "responses": {
                    "200": {"description": "Rendered file"},
                    "403": {"description": "Exports disabled"}
                }
            }
        },
        "/export/jobs": {
            "post": {
                "tags": ["Export"],
                "summary": "Queue a background export",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
