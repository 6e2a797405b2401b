package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Office Hours Scheduler API",
        "description": "Recurring office-hours scheduling with host coverage and notifications",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and credential management"},
        {"name": "Events", "description": "Materialized calendar projection"},
        {"name": "Coverage", "description": "Host assignment and per-occurrence edits"},
        {"name": "Series", "description": "Recurring series templates"},
        {"name": "Users", "description": "User administration and availability"},
        {"name": "Settings", "description": "Global scheduler settings"},
        {"name": "Notifications", "description": "Notification outbox"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/public/events": {
            "get": {
                "tags": ["Events"],
                "summary": "Public calendar projection",
                "parameters": [
                    {"name": "start_utc", "in": "query", "required": true, "type": "integer"},
                    {"name": "end_utc", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List event instances",
                "parameters": [
                    {"name": "start_utc", "in": "query", "required": true, "type": "integer"},
                    {"name": "end_utc", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create one-off event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOneOffEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/unclaimed": {
            "get": {
                "tags": ["Events"],
                "summary": "Unclaimed instances in the forward window",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{id}/ics": {
            "get": {
                "tags": ["Events"],
                "summary": "Download calendar invite",
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "ICS payload"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/events/coverage": {
            "get": {
                "tags": ["Events"],
                "summary": "Coverage history by month",
                "parameters": [
                    {"name": "months", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/export/csv": {
            "get": {
                "tags": ["Events"],
                "summary": "Export window as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "start_utc", "in": "query", "required": true, "type": "integer"},
                    {"name": "end_utc", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "CSV payload"}
                }
            }
        },
        "/events/export/pdf": {
            "get": {
                "tags": ["Events"],
                "summary": "Export window as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "start_utc", "in": "query", "required": true, "type": "integer"},
                    {"name": "end_utc", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "PDF payload"}
                }
            }
        },
        "/coverage/assign": {
            "post": {
                "tags": ["Coverage"],
                "summary": "Assign host to an instance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignHostRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/coverage/unassign": {
            "post": {
                "tags": ["Coverage"],
                "summary": "Remove host from an instance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InstanceRef"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/coverage/cancel": {
            "post": {
                "tags": ["Coverage"],
                "summary": "Cancel a single occurrence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CancelOccurrenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/coverage/reschedule": {
            "post": {
                "tags": ["Coverage"],
                "summary": "Move a single occurrence in time",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleOccurrenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/series": {
            "get": {
                "tags": ["Series"],
                "summary": "List series templates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Series"],
                "summary": "Create series template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSeriesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/series/{id}": {
            "get": {
                "tags": ["Series"],
                "summary": "Get series template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Series"],
                "summary": "Update series template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSeriesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Series"],
                "summary": "Delete series template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/series/{id}/pause": {
            "post": {
                "tags": ["Series"],
                "summary": "Toggle series pause",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user profile",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}/status": {
            "patch": {
                "tags": ["Users"],
                "summary": "Enable or disable a user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/users/{id}/ooo": {
            "put": {
                "tags": ["Users"],
                "summary": "Replace out-of-office blocks",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetOutOfOfficeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}/notifications": {
            "put": {
                "tags": ["Users"],
                "summary": "Update notification preferences",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get global settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update global settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notification jobs",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "current_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["current_password", "new_password"]
        },
        "InstanceRef": {
            "type": "object",
            "properties": {
                "series_id": {"type": "string"},
                "occurrence_start_utc": {"type": "integer"},
                "instance_id": {"type": "string"}
            }
        },
        "AssignHostRequest": {
            "type": "object",
            "properties": {
                "series_id": {"type": "string"},
                "occurrence_start_utc": {"type": "integer"},
                "instance_id": {"type": "string"},
                "candidate_id": {"type": "string"}
            },
            "required": ["candidate_id"]
        },
        "CancelOccurrenceRequest": {
            "type": "object",
            "properties": {
                "series_id": {"type": "string"},
                "occurrence_start_utc": {"type": "integer"},
                "instance_id": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "RescheduleOccurrenceRequest": {
            "type": "object",
            "properties": {
                "series_id": {"type": "string"},
                "occurrence_start_utc": {"type": "integer"},
                "instance_id": {"type": "string"},
                "start_utc": {"type": "integer"},
                "end_utc": {"type": "integer"},
                "notes": {"type": "string"}
            },
            "required": ["start_utc", "end_utc"]
        },
        "CreateSeriesRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "notes": {"type": "string"},
                "link": {"type": "string"},
                "color": {"type": "string"},
                "frequency": {"type": "string", "enum": ["WEEKLY", "BIWEEKLY", "MONTHLY"]},
                "weekday": {"type": "integer"},
                "weekday_ordinal": {"type": "integer"},
                "start_date_utc": {"type": "integer"},
                "end_date_utc": {"type": "integer"},
                "duration_minutes": {"type": "integer"}
            },
            "required": ["title", "frequency", "start_date_utc"]
        },
        "UpdateSeriesRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "notes": {"type": "string"},
                "link": {"type": "string"},
                "color": {"type": "string"},
                "end_date_utc": {"type": "integer"},
                "duration_minutes": {"type": "integer"}
            }
        },
        "CreateOneOffEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "notes": {"type": "string"},
                "link": {"type": "string"},
                "color": {"type": "string"},
                "start_utc": {"type": "integer"},
                "end_utc": {"type": "integer"}
            },
            "required": ["title", "start_utc", "end_utc"]
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "USER"]}
            },
            "required": ["email", "password", "full_name", "role"]
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "USER"]}
            }
        },
        "SetOutOfOfficeRequest": {
            "type": "object",
            "properties": {
                "blocks": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "start_utc": {"type": "integer"},
                            "end_utc": {"type": "integer"}
                        }
                    }
                }
            }
        },
        "UpdateSettingsRequest": {
            "type": "object",
            "properties": {
                "forward_window_months": {"type": "integer"},
                "default_event_duration_minutes": {"type": "integer"},
                "claims_paused": {"type": "boolean"},
                "brand_title": {"type": "string"},
                "brand_link": {"type": "string"}
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
