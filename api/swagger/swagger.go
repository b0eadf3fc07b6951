package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campaign Sync API",
        "description": "Campaign scheduling and realtime synchronization service",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "DepartmentSchedules", "description": "Department schedule management"},
        {"name": "Ops", "description": "Status engine and dispatcher operations"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Unavailable"}
                }
            }
        },
        "/api/v1/department-schedules": {
            "get": {
                "tags": ["DepartmentSchedules"],
                "summary": "List department schedules",
                "parameters": [
                    {"name": "name", "in": "query", "type": "string"},
                    {"name": "schedule_type", "in": "query", "type": "string", "enum": ["daily_dates", "hourly_slots"]},
                    {"name": "status", "in": "query", "type": "string", "enum": ["active", "inactive", "expired"]},
                    {"name": "department_id", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["DepartmentSchedules"],
                "summary": "Create department schedule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDepartmentScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid configuration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/department-schedules/{id}": {
            "get": {
                "tags": ["DepartmentSchedules"],
                "summary": "Get department schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["DepartmentSchedules"],
                "summary": "Update department schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDepartmentScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["DepartmentSchedules"],
                "summary": "Delete department schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/v1/department-schedules/{id}/window": {
            "get": {
                "tags": ["DepartmentSchedules"],
                "summary": "Get the computed activation window",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid configuration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/ops/schedules/reconcile": {
            "post": {
                "tags": ["Ops"],
                "summary": "Reconcile all department schedule statuses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/ops/schedules/status-stats": {
            "get": {
                "tags": ["Ops"],
                "summary": "Count department schedules per status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/ops/campaigns/repair-schedules": {
            "post": {
                "tags": ["Ops"],
                "summary": "Demote scheduled campaigns without a time anchor",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/ops/dispatcher/status": {
            "get": {
                "tags": ["Ops"],
                "summary": "Inspect the change feed dispatcher",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/ops/dispatcher/reprocess": {
            "post": {
                "tags": ["Ops"],
                "summary": "Reset the feed cursor and reprocess one batch",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/ops/dispatcher/flush": {
            "post": {
                "tags": ["Ops"],
                "summary": "Force-flush all pending notification queues",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ScheduleDate": {
            "type": "object",
            "properties": {
                "day_of_month": {"type": "integer"},
                "month": {"type": "integer"},
                "year": {"type": "integer"}
            },
            "required": ["day_of_month"]
        },
        "ScheduleSlot": {
            "type": "object",
            "properties": {
                "day_of_week": {"type": "integer", "minimum": 2, "maximum": 7},
                "start_time": {"type": "string", "example": "08:30"},
                "end_time": {"type": "string", "example": "11:45"}
            },
            "required": ["day_of_week", "start_time", "end_time"]
        },
        "ScheduleConfig": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["daily_dates", "hourly_slots"]},
                "dates": {"type": "array", "items": {"$ref": "#/definitions/ScheduleDate"}},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/ScheduleSlot"}}
            },
            "required": ["type"]
        },
        "CreateDepartmentScheduleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "schedule_type": {"type": "string", "enum": ["daily_dates", "hourly_slots"]},
                "schedule_config": {"$ref": "#/definitions/ScheduleConfig"},
                "department_id": {"type": "integer"},
                "created_by": {"type": "integer"}
            },
            "required": ["name", "schedule_type", "schedule_config", "department_id", "created_by"]
        },
        "UpdateDepartmentScheduleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "schedule_config": {"$ref": "#/definitions/ScheduleConfig"},
                "status": {"type": "string", "enum": ["active", "inactive"]}
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
