package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIS Core API",
        "description": "Timetable scheduling service: period grids, greedy generation, conflict-checked slot edits, assignment sync",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Period grid, slots, views, import/export"},
        {"name": "Generator", "description": "Whole-school and single-class generation"},
        {"name": "Sync", "description": "Teaching-assignment and room propagation"},
        {"name": "Schedules", "description": "Named timetable versions"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/timetables/period-definitions/{schoolYearId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List period definitions with display indices",
                "parameters": [
                    {"name": "schoolYearId", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Period grid not configured"}
                }
            },
            "post": {
                "tags": ["Timetable"],
                "summary": "Create period definition",
                "parameters": [
                    {"name": "schoolYearId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePeriodDefinitionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/period-definitions/{id}": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Update period definition",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePeriodDefinitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Delete unreferenced period definition",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Period still referenced by slots"}
                }
            }
        },
        "/timetables": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Create timetable slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Class, teacher, or room conflict"}
                }
            }
        },
        "/timetables/{id}": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Update timetable slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Class, teacher, or room conflict"}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Delete timetable slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/timetables/class/{classId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List class slots",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolYearId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/teacher/{teacherId}/{schoolYearId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List teacher slots across classes",
                "parameters": [
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolYearId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/grid/{schoolYearId}/{classId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Day-by-period grid of one class",
                "parameters": [
                    {"name": "schoolYearId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/import": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Bulk-import slots addressed by display period index",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/export/{schoolYearId}/{classId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download class timetable as CSV or PDF",
                "parameters": [
                    {"name": "schoolYearId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/timetables/generate/{schoolYearId}/{classId}": {
            "post": {
                "tags": ["Generator"],
                "summary": "Regenerate one class timetable",
                "parameters": [
                    {"name": "schoolYearId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Generation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Period grid not configured"}
                }
            }
        },
        "/timetables/generate-school/{schoolYearId}/{schoolId}": {
            "post": {
                "tags": ["Generator"],
                "summary": "Regenerate every class timetable of a school",
                "parameters": [
                    {"name": "schoolYearId", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/GenerateConfig"}}
                ],
                "responses": {
                    "200": {"description": "Generation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid grid bounds"},
                    "412": {"description": "Period grid not configured"}
                }
            }
        },
        "/sync/teaching-assignments": {
            "post": {
                "tags": ["Sync"],
                "summary": "Propagate teaching-assignment change into slots",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Referenced class or teacher missing"}
                }
            }
        },
        "/sync/room-subjects": {
            "post": {
                "tags": ["Sync"],
                "summary": "Backfill newly capable room into roomless slots",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncRoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Referenced subject or room missing"}
                }
            }
        },
        "/timetable-schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedule versions of a class",
                "parameters": [
                    {"name": "schoolYearId", "in": "query", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create schedule version",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Active schedule overlap"}
                }
            }
        },
        "/timetable-schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get schedule version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Schedules"],
                "summary": "Update schedule version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Active schedule overlap"}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete schedule version and its slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cascade summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreatePeriodDefinitionRequest": {
            "type": "object",
            "required": ["schoolId", "startTime", "endTime"],
            "properties": {
                "schoolId": {"type": "string"},
                "periodNumber": {"type": "integer"},
                "startTime": {"type": "string", "example": "08:00"},
                "endTime": {"type": "string", "example": "08:45"},
                "type": {"type": "string", "enum": ["regular", "morning", "lunch", "nap", "snack", "dismissal"]},
                "label": {"type": "string"}
            }
        },
        "UpdatePeriodDefinitionRequest": {
            "type": "object",
            "properties": {
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "label": {"type": "string"}
            }
        },
        "TimeSlotRequest": {
            "type": "object",
            "required": ["dayOfWeek", "startTime", "endTime"],
            "properties": {
                "dayOfWeek": {"type": "string", "example": "Monday"},
                "startTime": {"type": "string", "example": "08:00"},
                "endTime": {"type": "string", "example": "08:45"}
            }
        },
        "CreateSlotRequest": {
            "type": "object",
            "required": ["schoolYearId", "classId", "subjectId", "teachers", "timeSlot"],
            "properties": {
                "schoolYearId": {"type": "string"},
                "scheduleId": {"type": "string"},
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teachers": {"type": "array", "items": {"type": "string"}, "maxItems": 2},
                "roomId": {"type": "string"},
                "timeSlot": {"$ref": "#/definitions/TimeSlotRequest"}
            }
        },
        "UpdateSlotRequest": {
            "type": "object",
            "required": ["schoolYearId", "classId", "subjectId", "teachers", "timeSlot"],
            "properties": {
                "schoolYearId": {"type": "string"},
                "scheduleId": {"type": "string"},
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teachers": {"type": "array", "items": {"type": "string"}, "maxItems": 2},
                "roomId": {"type": "string"},
                "timeSlot": {"$ref": "#/definitions/TimeSlotRequest"}
            }
        },
        "ImportTimetableRequest": {
            "type": "object",
            "required": ["schoolYearId", "schoolId", "rows"],
            "properties": {
                "schoolYearId": {"type": "string"},
                "schoolId": {"type": "string"},
                "rows": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "classId": {"type": "string"},
                            "subjectId": {"type": "string"},
                            "teachers": {"type": "array", "items": {"type": "string"}},
                            "roomId": {"type": "string"},
                            "dayOfWeek": {"type": "string"},
                            "displayPeriodIndex": {"type": "integer"}
                        }
                    }
                }
            }
        },
        "GenerateConfig": {
            "type": "object",
            "properties": {
                "daysPerWeek": {"type": "integer", "minimum": 1, "maximum": 7},
                "periodsPerDay": {"type": "integer", "minimum": 1, "maximum": 10}
            }
        },
        "SyncAssignmentRequest": {
            "type": "object",
            "required": ["classId", "subjectIds", "teacherId", "action"],
            "properties": {
                "classId": {"type": "string"},
                "subjectIds": {"type": "array", "items": {"type": "string"}},
                "teacherId": {"type": "string"},
                "action": {"type": "string", "enum": ["add", "remove"]}
            }
        },
        "SyncRoomRequest": {
            "type": "object",
            "required": ["subjectId", "roomId"],
            "properties": {
                "subjectId": {"type": "string"},
                "roomId": {"type": "string"}
            }
        },
        "CreateScheduleRequest": {
            "type": "object",
            "required": ["name", "schoolYearId", "classId", "startDate", "endDate"],
            "properties": {
                "name": {"type": "string"},
                "schoolYearId": {"type": "string"},
                "classId": {"type": "string"},
                "startDate": {"type": "string", "example": "2025-09-01"},
                "endDate": {"type": "string", "example": "2026-01-15"}
            }
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "status": {"type": "string", "enum": ["active", "inactive"]}
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
